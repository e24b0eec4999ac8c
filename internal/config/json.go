package config

import "encoding/json"

// decodeJSONOver unmarshals data into cfg in place. encoding/json leaves
// fields untouched when the corresponding JSON key is absent, which is
// exactly the "file overlays defaults" behavior Load relies on.
func decodeJSONOver(cfg *AppConfig, data []byte) error {
	return json.Unmarshal(data, cfg)
}

func marshalIndent(cfg *AppConfig) ([]byte, error) {
	return json.MarshalIndent(cfg, "", "  ")
}
