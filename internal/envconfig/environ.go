package envconfig

import "strings"

// Environ converts os.Environ-style "NAME=value" pairs into a map.
// Entries without "=" are ignored; the last duplicate name wins.
func Environ(pairs []string) map[string]string {
	env := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		name, value, ok := strings.Cut(pair, "=")
		if !ok || name == "" {
			continue
		}
		env[name] = value
	}
	return env
}
