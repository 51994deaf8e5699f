package bind

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"

	perr "uwhatgov/internal/platform/errors"
	"uwhatgov/internal/platform/testkit"
)

type contribution struct {
	Speaker string `json:"speaker" validate:"required,max=20"`
	Text    string `json:"text" validate:"required"`
}

type putBody struct {
	Records []contribution `json:"records" validate:"required,min=1,dive"`
	Status  string         `json:"status" validate:"required,oneof=success failed"`
}

func put(body string) *http.Request {
	return httptest.NewRequest(http.MethodPut, "/api/v1/rewrites/d-1", strings.NewReader(body))
}

func TestParseJSON(t *testing.T) {
	cases := []struct {
		name  string
		body  string
		opts  []JSONOptions
		code  perr.ErrorCode
		field string
		msg   string
	}{
		{name: "ok", body: `{"records":[{"speaker":"Chair","text":"Order."}],"status":"success"}`},
		{name: "empty", body: ``, code: perr.ErrorCodeJSON, msg: "empty body"},
		{name: "empty allowed", body: ``, opts: []JSONOptions{{AllowEmptyBody: true, SkipValidation: true}}},
		{name: "malformed", body: `{"records":`, code: perr.ErrorCodeJSON},
		{name: "unknown field", body: `{"status":"success","extra":true}`, code: perr.ErrorCodeJSON},
		{
			name: "unknown allowed",
			body: `{"records":[{"speaker":"Chair","text":"Order."}],"status":"failed","extra":true}`,
			opts: []JSONOptions{{AllowUnknown: true}},
		},
		{name: "trailing", body: `{"status":"success"} {}`, code: perr.ErrorCodeJSON, msg: "unexpected trailing data"},
		{name: "too large", body: `{"status":"` + strings.Repeat("x", 64) + `"}`, opts: []JSONOptions{{MaxBytes: 16}}, code: perr.ErrorCodeJSON, msg: "body exceeds 16 bytes"},
		{name: "missing records", body: `{"status":"success"}`, code: perr.ErrorCodeValidation, field: "records"},
		{name: "bad status", body: `{"records":[{"speaker":"Chair","text":"Order."}],"status":"pending"}`, code: perr.ErrorCodeValidation, field: "status"},
		{
			name:  "nested",
			body:  `{"records":[{"speaker":"Chair","text":"Order."},{"speaker":"The Parliamentary Under-Secretary","text":"x"}],"status":"success"}`,
			code:  perr.ErrorCodeValidation,
			field: "records[1].speaker",
			msg:   "speaker must be at most 20",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseJSON[putBody](put(tc.body), tc.opts...)
			if tc.code == 0 {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			e, ok := perr.As(err)
			if !ok || e.Code() != tc.code {
				t.Fatalf("err = %v, want code %s", err, tc.code)
			}
			if e.Field() != tc.field {
				t.Fatalf("field = %q, want %q", e.Field(), tc.field)
			}
			if tc.msg != "" && e.Message() != tc.msg {
				t.Fatalf("message = %q, want %q", e.Message(), tc.msg)
			}
		})
	}
}

func TestParseJSON_Decodes(t *testing.T) {
	got, err := ParseJSON[putBody](put(`{"records":[{"speaker":"Chair","text":"Order."}],"status":"success"}`))
	if err != nil {
		t.Fatalf("ParseJSON: %v", err)
	}
	if len(got.Records) != 1 || got.Records[0].Speaker != "Chair" || got.Status != "success" {
		t.Fatalf("got %+v", got)
	}
}

func TestParseJSON_MoreSeam(t *testing.T) {
	testkit.Serial(t)
	testkit.Swap(t, &jsonMore, func(*json.Decoder) bool { return true })

	if _, err := ParseJSON[putBody](put(`{"status":"success"}`)); !perr.IsCode(err, perr.ErrorCodeJSON) {
		t.Fatalf("err = %v", err)
	}
}

func TestValidate_Misuse(t *testing.T) {
	if err := Validate(42); !perr.IsCode(err, perr.ErrorCodeValidation) {
		t.Fatalf("err = %v", err)
	}
}

func TestFieldAndMessage(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		field, msg string
	}{
		{"nil", nil, "", ""},
		{"foreign", errors.New("boom"), "", "boom"},
		{"min", validation().v.Struct(putBody{Records: []contribution{}, Status: "success"}), "records", "records must be at least 1"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			field, msg := FieldAndMessage(tc.err)
			if field != tc.field || msg != tc.msg {
				t.Fatalf("got %q %q", field, msg)
			}
		})
	}
}

func TestJSONName(t *testing.T) {
	typ := reflect.TypeFor[struct {
		A string `json:"debate_id,omitempty"`
		B string `json:"-"`
		C string
	}]()
	for i, want := range []string{"debate_id", "B", "C"} {
		if got := jsonName(typ.Field(i)); got != want {
			t.Fatalf("field %d = %q, want %q", i, got, want)
		}
	}
}
