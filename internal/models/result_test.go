package models

import (
	"encoding/json"
	"testing"
)

func TestHopCodeMarshal(t *testing.T) {
	chain := []Hop{
		{Source: "http://bad.example", Code: HopCode{Failed: true}},
		{Source: "dial tcp: connection refused", Code: HopCode{Code: 0}},
	}

	data, err := json.Marshal(chain)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	want := `[{"source":"http://bad.example","code":"Error"},{"source":"dial tcp: connection refused","code":0}]`
	if string(data) != want {
		t.Errorf("unexpected JSON:\n got: %s\nwant: %s", data, want)
	}

	var back []Hop
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if !back[0].Code.Failed {
		t.Error("expected first hop to carry the failure marker")
	}
	if back[1].Code.Failed || back[1].Code.Code != 0 {
		t.Errorf("expected second hop code 0, got %+v", back[1].Code)
	}
}

func TestHopCodeMarshalStatus(t *testing.T) {
	data, err := json.Marshal(Hop{Source: "https://ok.example", Code: HopCode{Code: 301}})
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	if string(data) != `{"source":"https://ok.example","code":301}` {
		t.Errorf("unexpected JSON: %s", data)
	}
}
