package httpapi

import (
	"encoding/json"
	"net/http/httptest"
	"testing"
)

func TestWriteListEnvelope(t *testing.T) {
	recorder := httptest.NewRecorder()
	WriteList(recorder, []string{"a", "b"}, 42)
	if recorder.Code != 200 {
		t.Fatalf("status = %d", recorder.Code)
	}
	body := struct {
		Success bool     `json:"success"`
		Data    []string `json:"data"`
		Count   *int     `json:"count"`
	}{}
	if err := json.Unmarshal(recorder.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !body.Success || len(body.Data) != 2 || body.Count == nil || *body.Count != 42 {
		t.Fatalf("unexpected envelope: %s", recorder.Body.String())
	}
}

func TestWriteDataOmitsCount(t *testing.T) {
	recorder := httptest.NewRecorder()
	WriteData(recorder, 201, map[string]string{"id": "x"})
	if recorder.Code != 201 {
		t.Fatalf("status = %d", recorder.Code)
	}
	raw := map[string]json.RawMessage{}
	if err := json.Unmarshal(recorder.Body.Bytes(), &raw); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if _, present := raw["count"]; present {
		t.Fatalf("count must be omitted for single resources: %s", recorder.Body.String())
	}
}

func TestWriteErrorEnvelope(t *testing.T) {
	recorder := httptest.NewRecorder()
	WriteError(recorder, 404, "course not found")
	body := struct {
		Success bool   `json:"success"`
		Error   string `json:"error"`
	}{Success: true}
	if err := json.Unmarshal(recorder.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Success || body.Error != "course not found" {
		t.Fatalf("unexpected envelope: %s", recorder.Body.String())
	}
	if recorder.Code != 404 {
		t.Fatalf("status = %d", recorder.Code)
	}
}
