package sqldb

import (
	"github.com/Masterminds/squirrel"
	"github.com/go-sql-driver/mysql"
	_ "modernc.org/sqlite" // Pure-Go SQLite driver (no CGO required)
)

// Dialect describes how a database/sql backed database stores the readings table
type Dialect struct {
	Name       string
	DriverName string

	// Schema is executed on initialization; every statement has to be idempotent
	Schema []string

	// Purge removes all readings and restarts the ID sequence; executed in a single transaction
	Purge []string

	Placeholder squirrel.PlaceholderFormat

	// SingleConnection limits the pool to one connection (required for in-memory SQLite databases)
	SingleConnection bool
}

// SQLite is the dialect of modernc.org/sqlite
var SQLite = Dialect{
	Name:       "sqlite",
	DriverName: "sqlite",
	Schema: []string{
		`CREATE TABLE IF NOT EXISTS weather_data (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			city_name VARCHAR(255),
			temperature FLOAT,
			pressure INT,
			humidity INT,
			date_time TIMESTAMP
		)`,
		"CREATE INDEX IF NOT EXISTS weather_data_city_name_idx ON weather_data (city_name)",
	},
	Purge: []string{
		"DELETE FROM weather_data",
		"DELETE FROM sqlite_sequence WHERE name = 'weather_data'",
	},
	Placeholder:      squirrel.Question,
	SingleConnection: true,
}

// MySQL is the dialect of github.com/go-sql-driver/mysql
var MySQL = Dialect{
	Name:       "mysql",
	DriverName: "mysql",
	Schema: []string{
		`CREATE TABLE IF NOT EXISTS weather_data (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			city_name VARCHAR(255),
			temperature DOUBLE,
			pressure INT,
			humidity INT,
			date_time DATETIME(6),
			INDEX weather_data_city_name_idx (city_name)
		)`,
	},
	Purge: []string{
		"TRUNCATE TABLE weather_data",
	},
	Placeholder: squirrel.Question,
}

// MySQLDSN builds a go-sql-driver/mysql DSN that scans DATETIME columns into time.Time values
func MySQLDSN(address, database, user, password string) string {
	cfg := mysql.NewConfig()
	cfg.Net = "tcp"
	cfg.Addr = address
	cfg.DBName = database
	cfg.User = user
	cfg.Passwd = password
	cfg.ParseTime = true
	return cfg.FormatDSN()
}
