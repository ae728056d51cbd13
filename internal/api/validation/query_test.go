package validation

import (
	"net/http/httptest"
	"reflect"
	"testing"
)

func TestQueryNumber(t *testing.T) {
	tests := []struct {
		url     string
		want    int64
		errType string
	}{
		{url: "/", want: 10},
		{url: "/?limit=5", want: 5},
		{url: "/?limit=abc", errType: "validation.query.parameter.invalidType"},
		{url: "/?limit=0", errType: "validation.query.parameter.number.outOfRange"},
		{url: "/?limit=1001", errType: "validation.query.parameter.number.outOfRange"},
	}

	for _, test := range tests {
		request := httptest.NewRequest("GET", test.url, nil)
		got, err := QueryNumber(request, "limit", false, 10, 1, 1000)
		if test.errType != "" {
			if err == nil || err.Type != test.errType {
				t.Errorf("%s: err = %+v, want %s", test.url, err, test.errType)
			}
			continue
		}
		if err != nil || got != test.want {
			t.Errorf("%s: got %d, %+v, want %d", test.url, got, err, test.want)
		}
	}

	request := httptest.NewRequest("GET", "/", nil)
	if _, err := QueryNumber(request, "limit", true, 0, 1, 10); err == nil || err.Type != "validation.query.parameter.missing" {
		t.Errorf("required: err = %+v", err)
	}
}

func TestQueryStrings(t *testing.T) {
	request := httptest.NewRequest("GET", "/?city_name=Seoul&city_name=%20&city_name=Paris", nil)
	values, err := QueryStrings(request, "city_name", true)
	if err != nil || !reflect.DeepEqual(values, []string{"Seoul", "Paris"}) {
		t.Errorf("values = %v, %+v", values, err)
	}

	request = httptest.NewRequest("GET", "/?city_name=", nil)
	if _, err := QueryStrings(request, "city_name", true); err == nil || err.Type != "validation.query.parameter.missing" {
		t.Errorf("missing: err = %+v", err)
	}
	if values, err := QueryStrings(request, "city_name", false); err != nil || values != nil {
		t.Errorf("optional: values = %v, err = %+v", values, err)
	}
}

func TestQueryEnum(t *testing.T) {
	allowed := []string{"id", "-id"}

	request := httptest.NewRequest("GET", "/?sort=-id", nil)
	if value, err := QueryEnum(request, "sort", allowed); err != nil || value != "-id" {
		t.Errorf("value = %q, err = %+v", value, err)
	}

	request = httptest.NewRequest("GET", "/?sort=wind", nil)
	if _, err := QueryEnum(request, "sort", allowed); err == nil || err.Type != "validation.query.parameter.invalidValue" {
		t.Errorf("invalid: err = %+v", err)
	}
}
