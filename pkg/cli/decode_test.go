package cli

import (
	"errors"
	"strings"
	"testing"
)

type manifest struct {
	SampleRate int `json:"sample_rate" yaml:"sample_rate"`
	Items      []struct {
		Ref string `json:"ref" yaml:"ref"`
		Deg string `json:"deg" yaml:"deg"`
	} `json:"items" yaml:"items"`
}

func TestDecodeFile(t *testing.T) {
	tests := []struct {
		name string
		file string
		data string
	}{
		{"yaml", "m.yaml", "sample_rate: 16000\nitems:\n  - ref: a.wav\n    deg: b.wav\n"},
		{"yml", "m.YML", "sample_rate: 16000\nitems: [{ref: a.wav, deg: b.wav}]\n"},
		{"json", "m.json", `{"sample_rate": 16000, "items": [{"ref": "a.wav", "deg": "b.wav"}]}`},
		{"unknown ext", "m.txt", "sample_rate: 16000\nitems: [{ref: a.wav, deg: b.wav}]\n"},
		{"s3 uri", "s3://bucket/sets/m.yaml", "sample_rate: 16000\nitems: [{ref: a.wav, deg: b.wav}]\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var m manifest
			if err := DecodeFile([]byte(tt.data), tt.file, &m); err != nil {
				t.Fatalf("DecodeFile: %v", err)
			}
			if m.SampleRate != 16000 || len(m.Items) != 1 || m.Items[0].Deg != "b.wav" {
				t.Fatalf("manifest = %+v", m)
			}
		})
	}
}

func TestDecodeFileErrors(t *testing.T) {
	tests := []struct {
		name string
		file string
		data string
		want string
	}{
		{"invalid json", "m.json", "{not json", "JSON"},
		{"unknown yaml field", "m.yaml", "sample_rate: 16000\nitemz: []\n", "itemz"},
		{"unknown json field", "m.json", `{"sample_rate": 1, "rate": 2}`, "rate"},
		{"unknown nested field", "m.yaml", "items: [{ref: a.wav, degraded: b.wav}]\n", "degraded"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var m manifest
			err := DecodeFile([]byte(tt.data), tt.file, &m)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("DecodeFile error = %v, want mention of %q", err, tt.want)
			}
		})
	}

	for _, file := range []string{"e.yaml", "e.json", "e.txt"} {
		var m manifest
		if err := DecodeFile(nil, file, &m); !errors.Is(err, ErrEmptyDocument) {
			t.Errorf("DecodeFile(empty %s) = %v, want ErrEmptyDocument", file, err)
		}
	}
}
