package pdfaf

import (
	"fmt"
	"maps"
	"strings"
	"time"
)

// pdfDateLayout matches PDF date strings such as D:20230115120000+05'00'
// once the apostrophes are removed.
const pdfDateLayout = "D:20060102150405Z0700"

// canonicalMetadataKeys must be present in every Document's metadata.
var canonicalMetadataKeys = []string{
	"source",
	"total_pages",
	"creationdate",
	"creator",
	"producer",
}

// metadataKeySynonyms maps backend-specific key spellings to their canonical
// names. Both spellings are kept so callers relying on either keep working.
var metadataKeySynonyms = map[string]string{
	"page_count": "total_pages",
	"file_path":  "source",
}

// PurgeMetadata normalizes raw backend metadata: keys lose any leading "/"
// and are lowercased, PDF date strings become RFC 3339, synonym keys are
// mirrored onto their canonical names, string values are trimmed and values
// of other types are stringified. Unparsable dates are kept verbatim.
func PurgeMetadata(metadata map[string]any) map[string]any {
	purged := make(map[string]any, len(metadata))
	for k, v := range metadata {
		switch v.(type) {
		case string, int:
		default:
			v = fmt.Sprint(v)
		}
		k = strings.ToLower(strings.TrimPrefix(k, "/"))
		switch {
		case k == "creationdate" || k == "moddate":
			purged[k] = normalizePDFDate(v)
		case metadataKeySynonyms[k] != "":
			purged[metadataKeySynonyms[k]] = v
			purged[k] = v
		default:
			if s, ok := v.(string); ok {
				v = strings.TrimSpace(s)
			}
			purged[k] = v
		}
	}
	return purged
}

func normalizePDFDate(v any) any {
	s, ok := v.(string)
	if !ok {
		return v
	}
	t, err := time.Parse(pdfDateLayout, strings.ReplaceAll(s, "'", ""))
	if err != nil {
		return s
	}
	return t.Format(time.RFC3339)
}

// ValidateMetadata checks the cross-backend metadata contract: all canonical
// keys present, and any "page" entry an int.
func ValidateMetadata(metadata map[string]any) error {
	for _, k := range canonicalMetadataKeys {
		if _, ok := metadata[k]; !ok {
			return fmt.Errorf("document metadata is missing required key %q", k)
		}
	}
	if v, ok := metadata["page"]; ok {
		if _, isInt := v.(int); !isInt {
			return fmt.Errorf("document metadata key \"page\" must be an int, got %T", v)
		}
	}
	return nil
}

// withDefaultMetadata fills the canonical keys a backend could not provide.
// The engine name stands in for producer and creator, matching what PDF
// writers put there.
func withDefaultMetadata(metadata map[string]any, engine string) map[string]any {
	for k, v := range map[string]any{"producer": engine, "creator": engine, "creationdate": ""} {
		if _, ok := metadata[k]; !ok {
			metadata[k] = v
		}
	}
	return metadata
}

// mergedMetadata overlays page-level entries on a copy of the document-level
// metadata.
func mergedMetadata(doc, page map[string]any) map[string]any {
	merged := make(map[string]any, len(doc)+len(page))
	maps.Copy(merged, doc)
	maps.Copy(merged, page)
	return merged
}
