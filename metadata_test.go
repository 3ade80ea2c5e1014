package pdfaf

import (
	"reflect"
	"testing"
)

func TestPurgeMetadata(t *testing.T) {
	tests := []struct {
		name string
		in   map[string]any
		want map[string]any
	}{
		{
			name: "keys lose slash prefix and case",
			in:   map[string]any{"/Producer": "Acrobat", "Title": "Report"},
			want: map[string]any{"producer": "Acrobat", "title": "Report"},
		},
		{
			name: "string values trimmed",
			in:   map[string]any{"author": "  Jane Doe \n"},
			want: map[string]any{"author": "Jane Doe"},
		},
		{
			name: "int values pass through",
			in:   map[string]any{"total_pages": 12},
			want: map[string]any{"total_pages": 12},
		},
		{
			name: "other types stringified",
			in:   map[string]any{"trapped": true},
			want: map[string]any{"trapped": "true"},
		},
		{
			name: "pdf date becomes RFC 3339",
			in:   map[string]any{"/CreationDate": "D:20230115120000+05'00'"},
			want: map[string]any{"creationdate": "2023-01-15T12:00:00+05:00"},
		},
		{
			name: "utc date keeps Z suffix",
			in:   map[string]any{"ModDate": "D:20240229080910Z"},
			want: map[string]any{"moddate": "2024-02-29T08:09:10Z"},
		},
		{
			name: "unparsable date kept verbatim",
			in:   map[string]any{"creationdate": "yesterday"},
			want: map[string]any{"creationdate": "yesterday"},
		},
		{
			name: "empty date kept verbatim",
			in:   map[string]any{"creationdate": ""},
			want: map[string]any{"creationdate": ""},
		},
		{
			name: "synonyms mirrored onto canonical names",
			in:   map[string]any{"page_count": 3, "file_path": "a.pdf"},
			want: map[string]any{
				"page_count":  3,
				"total_pages": 3,
				"file_path":   "a.pdf",
				"source":      "a.pdf",
			},
		},
		{
			name: "synonym values are not trimmed",
			in:   map[string]any{"file_path": " a.pdf "},
			want: map[string]any{"file_path": " a.pdf ", "source": " a.pdf "},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PurgeMetadata(tt.in)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("PurgeMetadata(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestValidateMetadata(t *testing.T) {
	valid := map[string]any{
		"source":       "a.pdf",
		"total_pages":  2,
		"creationdate": "",
		"creator":      "x",
		"producer":     "x",
	}

	tests := []struct {
		name    string
		mutate  func(map[string]any)
		wantErr bool
	}{
		{
			name:    "all canonical keys present",
			mutate:  func(map[string]any) {},
			wantErr: false,
		},
		{
			name:    "page as int is fine",
			mutate:  func(m map[string]any) { m["page"] = 0 },
			wantErr: false,
		},
		{
			name:    "missing producer",
			mutate:  func(m map[string]any) { delete(m, "producer") },
			wantErr: true,
		},
		{
			name:    "missing source",
			mutate:  func(m map[string]any) { delete(m, "source") },
			wantErr: true,
		},
		{
			name:    "page as string",
			mutate:  func(m map[string]any) { m["page"] = "0" },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			md := make(map[string]any, len(valid))
			for k, v := range valid {
				md[k] = v
			}
			tt.mutate(md)
			err := ValidateMetadata(md)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateMetadata(%v) error = %v, wantErr %v", md, err, tt.wantErr)
			}
		})
	}
}

func TestWithDefaultMetadata(t *testing.T) {
	got := withDefaultMetadata(map[string]any{"producer": "Acrobat"}, "engine")
	if got["producer"] != "Acrobat" {
		t.Errorf("producer = %v, want existing value kept", got["producer"])
	}
	if got["creator"] != "engine" {
		t.Errorf("creator = %v, want %q", got["creator"], "engine")
	}
	if got["creationdate"] != "" {
		t.Errorf("creationdate = %v, want empty string", got["creationdate"])
	}
}

func TestMergedMetadata(t *testing.T) {
	doc := map[string]any{"source": "a.pdf", "producer": "x"}
	page := map[string]any{"page": 1}
	got := mergedMetadata(doc, page)
	if got["page"] != 1 || got["source"] != "a.pdf" {
		t.Errorf("mergedMetadata() = %v", got)
	}
	if _, ok := doc["page"]; ok {
		t.Error("mergedMetadata() mutated the document metadata")
	}
}
