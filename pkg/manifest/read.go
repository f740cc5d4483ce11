package manifest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/matzehuels/productlens/pkg/errors"
)

var requiredKeys = []string{"nodes", "sources", "exposures", "child_map", "parent_map"}

// ReadFile reads and decodes the manifest at path.
func ReadFile(path string) (*Manifest, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "manifest %s not found", path)
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return Read(f)
}

// Read decodes a manifest document.
//
// Every key in nodes, sources, exposures, child_map and parent_map must be
// present with the right container type; otherwise a MALFORMED_MANIFEST error
// is returned and nothing is decoded.
func Read(r io.Reader) (*Manifest, error) {
	var top map[string]json.RawMessage
	if err := json.NewDecoder(r).Decode(&top); err != nil {
		return nil, errors.Wrap(errors.ErrCodeMalformedManifest, err, "manifest is not a JSON object")
	}
	for _, key := range requiredKeys {
		raw, ok := top[key]
		if !ok {
			return nil, errors.New(errors.ErrCodeMalformedManifest, "manifest is missing required key %q", key)
		}
		if !isObject(raw) {
			return nil, errors.New(errors.ErrCodeMalformedManifest, "manifest key %q must be an object", key)
		}
	}

	m := &Manifest{}
	var err error
	if m.Nodes, err = decodeCollection(top, CollectionNodes); err != nil {
		return nil, err
	}
	if m.Sources, err = decodeCollection(top, CollectionSources); err != nil {
		return nil, err
	}
	if m.Exposures, err = decodeCollection(top, CollectionExposures); err != nil {
		return nil, err
	}
	if m.ChildMap, err = decodeAdjacency(top, "child_map"); err != nil {
		return nil, err
	}
	if m.ParentMap, err = decodeAdjacency(top, "parent_map"); err != nil {
		return nil, err
	}
	if raw, ok := top["metadata"]; ok && isObject(raw) {
		_ = json.Unmarshal(raw, &m.Metadata)
	}
	return m, nil
}

func decodeCollection(top map[string]json.RawMessage, c Collection) (map[string]Node, error) {
	var records map[string]json.RawMessage
	if err := json.Unmarshal(top[string(c)], &records); err != nil {
		return nil, malformed(string(c), err)
	}
	out := make(map[string]Node, len(records))
	for id, raw := range records {
		if !isObject(raw) {
			return nil, errors.New(errors.ErrCodeMalformedManifest, "%s[%q] must be an object", c, id)
		}
		var n Node
		if err := json.Unmarshal(raw, &n); err != nil {
			return nil, malformed(fmt.Sprintf("%s[%q]", c, id), err)
		}
		if err := json.Unmarshal(raw, &n.Attrs); err != nil {
			return nil, malformed(fmt.Sprintf("%s[%q]", c, id), err)
		}
		if n.UniqueID == "" {
			n.UniqueID = id
		}
		out[id] = n
	}
	return out, nil
}

func decodeAdjacency(top map[string]json.RawMessage, key string) (map[string][]string, error) {
	var adj map[string][]string
	if err := json.Unmarshal(top[key], &adj); err != nil {
		return nil, malformed(key, err)
	}
	return adj, nil
}

func malformed(what string, err error) error {
	return errors.Wrap(errors.ErrCodeMalformedManifest, err, "invalid %s", what)
}

func isObject(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) > 0 && raw[0] == '{'
}
