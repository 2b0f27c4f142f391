package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestRequireMethod(t *testing.T) {
	rr := httptest.NewRecorder()
	ok := RequireMethod(rr, httptest.NewRequest(http.MethodGet, "/api/sync", nil), http.MethodPost)
	if ok {
		t.Fatal("RequireMethod accepted GET")
	}
	if rr.Code != http.StatusMethodNotAllowed || rr.Header().Get("Allow") != "POST" {
		t.Errorf("got %d Allow=%q", rr.Code, rr.Header().Get("Allow"))
	}
}

func TestDecodeJSON_RejectsMalformedBody(t *testing.T) {
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/advice", strings.NewReader("{not json"))
	var v map[string]interface{}
	if DecodeJSON(rr, req, &v) {
		t.Fatal("DecodeJSON accepted malformed body")
	}
	if rr.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rr.Code)
	}
}

func TestValidateRequest_WritesFieldErrors(t *testing.T) {
	type body struct {
		Years int `json:"years" validate:"gte=1"`
	}
	rr := httptest.NewRecorder()
	if ValidateRequest(rr, body{Years: 0}) {
		t.Fatal("ValidateRequest accepted years=0")
	}

	var resp ErrorResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Code != CodeInvalidRequest || !strings.Contains(resp.Error, "years") {
		t.Errorf("response = %+v", resp)
	}
}

func TestQueryHelpers(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/x?refresh=true&days=90&bad=zz", nil)
	if !QueryBool(r, "refresh") || QueryBool(r, "missing") {
		t.Error("QueryBool")
	}
	if QueryInt(r, "days", 365) != 90 || QueryInt(r, "bad", 7) != 7 {
		t.Error("QueryInt")
	}
}

func TestDecodeJSON_EmptyBodyKeepsDefaults(t *testing.T) {
	v := struct {
		Years int `json:"years"`
	}{Years: 10}

	req := httptest.NewRequest(http.MethodPost, "/api/calculators/sip", nil)
	rr := httptest.NewRecorder()
	if !DecodeJSON(rr, req, &v) {
		t.Fatalf("DecodeJSON rejected an empty body: %s", rr.Body.String())
	}
	if v.Years != 10 {
		t.Errorf("Years = %d, want default 10", v.Years)
	}
}

func TestDecodeJSON_TooLarge(t *testing.T) {
	var v map[string]string
	body := `{"pad":"` + strings.Repeat("x", maxBodyBytes) + `"}`
	req := httptest.NewRequest(http.MethodPost, "/api/advice", strings.NewReader(body))
	rr := httptest.NewRecorder()

	if DecodeJSON(rr, req, &v) {
		t.Fatal("DecodeJSON accepted an oversized body")
	}
	if rr.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("status = %d, want 413", rr.Code)
	}
}
