package i18n

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

const DefaultLocale = "en"

//go:embed locales/*.yaml
var embedded embed.FS

type Translations map[string]string

var (
	locales  = make(map[string]Translations)
	mu       sync.RWMutex
	loadOnce sync.Once
	loadErr  error
)

// Load parses the embedded locale files once. Translate calls it lazily, so
// callers only need it to surface a parse error at startup.
func Load() error {
	loadOnce.Do(func() {
		loadErr = loadFS(embedded, "locales")
	})
	return loadErr
}

// LoadTranslations merges <locale>.yaml files from a directory on disk over the
// embedded set, so deployments can adjust wording without a rebuild.
func LoadTranslations(localePath string) error {
	if err := Load(); err != nil {
		return err
	}
	return loadFS(os.DirFS(localePath), ".")
}

func loadFS(fsys fs.FS, dir string) error {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".yaml" {
			continue
		}
		locale := strings.TrimSuffix(entry.Name(), ".yaml")
		filePath := filepath.ToSlash(filepath.Join(dir, entry.Name()))

		data, err := fs.ReadFile(fsys, filePath)
		if err != nil {
			return err
		}

		var sections map[string]map[string]string
		if err := yaml.Unmarshal(data, &sections); err != nil {
			return fmt.Errorf("failed to parse %s: %w", filePath, err)
		}

		mu.Lock()
		trans, ok := locales[locale]
		if !ok {
			trans = make(Translations)
			locales[locale] = trans
		}
		for section, values := range sections {
			for key, val := range values {
				trans[strings.ToLower(section)+"."+key] = val
			}
		}
		mu.Unlock()
	}

	return nil
}

// Translate looks key up in locale, then in the default locale, and finally
// returns the key itself.
func Translate(locale, key string) string {
	_ = Load()

	mu.RLock()
	defer mu.RUnlock()

	if trans, ok := locales[locale]; ok {
		if val, ok := trans[key]; ok {
			return val
		}
	}

	if locale != DefaultLocale {
		if trans, ok := locales[DefaultLocale]; ok {
			if val, ok := trans[key]; ok {
				return val
			}
		}
	}

	return key
}

func Translatef(locale, key string, args ...any) string {
	return fmt.Sprintf(Translate(locale, key), args...)
}

// StatusLabel is the display label of a case or grant status value.
func StatusLabel(locale, status string) string {
	key := "status." + strings.ReplaceAll(strings.ToLower(status), " ", "_")
	if label := Translate(locale, key); label != key {
		return label
	}
	return status
}
