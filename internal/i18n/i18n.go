package i18n

import (
	"errors"
	"fmt"
	"io/fs"
	"regexp"
	"sort"
	"strings"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

// ErrUnsupportedLanguage is returned when a language is not part of the bundle.
var ErrUnsupportedLanguage = errors.New("i18n: unsupported language")

var placeholderPattern = regexp.MustCompile(`\{(\w+)\}`)

// Options selects the catalogs loaded into a Bundle.
type Options struct {
	// Default is returned by Resolve when nothing in the request matches.
	Default string
	// Fallback is consulted for keys missing from the requested language.
	Fallback  string
	Supported []string
}

type Bundle struct {
	dict      map[string]map[string]string
	trees     map[string]map[string]any
	def       string
	fallback  string
	supported []string
	tags      []language.Tag
	matcher   language.Matcher
	order     []string
}

// Load reads <lang>.yaml (or <lang>.json) from fsys for every supported language.
// Only the fallback catalog is mandatory.
func Load(fsys fs.FS, opts Options) (*Bundle, error) {
	supported := opts.Supported
	if len(supported) == 0 {
		supported = []string{"zh-CN", "ja-JP", "en-US"}
	}
	if opts.Fallback == "" {
		opts.Fallback = "en-US"
	}
	if opts.Default == "" {
		opts.Default = supported[0]
	}

	b := &Bundle{
		dict:  map[string]map[string]string{},
		trees: map[string]map[string]any{},
	}
	for _, raw := range supported {
		tag, err := language.Parse(strings.ReplaceAll(strings.TrimSpace(raw), "_", "-"))
		if err != nil {
			return nil, fmt.Errorf("parse language %q: %w", raw, err)
		}
		b.supported = append(b.supported, tag.String())
		b.tags = append(b.tags, tag)
	}

	def, err := b.Normalize(opts.Default)
	if err != nil {
		return nil, fmt.Errorf("default language %s: %w", opts.Default, err)
	}
	fallback, err := b.Normalize(opts.Fallback)
	if err != nil {
		return nil, fmt.Errorf("fallback language %s: %w", opts.Fallback, err)
	}
	b.def = def
	b.fallback = fallback

	for _, lang := range b.supported {
		raw, err := readCatalog(fsys, lang)
		if err != nil {
			// allow missing file for non-fallback locales
			if errors.Is(err, fs.ErrNotExist) && lang != fallback {
				continue
			}
			return nil, fmt.Errorf("load locale %s: %w", lang, err)
		}
		tree := map[string]any{}
		if err := yaml.Unmarshal(raw, &tree); err != nil {
			return nil, fmt.Errorf("unmarshal %s: %w", lang, err)
		}
		flat := map[string]string{}
		flatten("", tree, flat)
		b.trees[lang] = tree
		b.dict[lang] = flat
	}

	// the matcher's first entry doubles as its no-match answer
	ordered := []language.Tag{b.tags[b.indexOf(def)]}
	b.order = []string{def}
	for i, lang := range b.supported {
		if lang != def {
			ordered = append(ordered, b.tags[i])
			b.order = append(b.order, lang)
		}
	}
	b.matcher = language.NewMatcher(ordered)
	return b, nil
}

func readCatalog(fsys fs.FS, lang string) ([]byte, error) {
	raw, err := fs.ReadFile(fsys, lang+".yaml")
	if errors.Is(err, fs.ErrNotExist) {
		// JSON is valid YAML
		return fs.ReadFile(fsys, lang+".json")
	}
	return raw, err
}

func flatten(prefix string, node map[string]any, out map[string]string) {
	for k, v := range node {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		switch val := v.(type) {
		case map[string]any:
			flatten(key, val, out)
		case string:
			out[key] = val
		case nil:
			out[key] = ""
		default:
			out[key] = fmt.Sprint(val)
		}
	}
}

func (b *Bundle) indexOf(lang string) int {
	for i, s := range b.supported {
		if s == lang {
			return i
		}
	}
	return -1
}

// Supported lists the configured languages in sorted order.
func (b *Bundle) Supported() []string {
	out := make([]string, len(b.supported))
	copy(out, b.supported)
	sort.Strings(out)
	return out
}

// Default returns the language used when nothing else matches.
func (b *Bundle) Default() string { return b.def }

// Fallback returns the configured fallback language.
func (b *Bundle) Fallback() string { return b.fallback }

// Normalize maps lang onto a supported language. "ja", "ja_jp" and "JA-JP"
// all become "ja-JP".
func (b *Bundle) Normalize(lang string) (string, error) {
	lang = strings.ReplaceAll(strings.TrimSpace(lang), "_", "-")
	if lang == "" {
		return "", ErrUnsupportedLanguage
	}
	tag, err := language.Parse(lang)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedLanguage, lang)
	}
	for i, t := range b.tags {
		if t == tag {
			return b.supported[i], nil
		}
	}
	base, _ := tag.Base()
	for i, t := range b.tags {
		if tb, _ := t.Base(); tb == base {
			return b.supported[i], nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrUnsupportedLanguage, lang)
}

// Tag returns the language tag of lang, or of the fallback language.
func (b *Bundle) Tag(lang string) language.Tag {
	if norm, err := b.Normalize(lang); err == nil {
		return b.tags[b.indexOf(norm)]
	}
	return b.tags[b.indexOf(b.fallback)]
}

// T returns the translation of key in lang with {name} placeholders filled
// from params, falling back to the fallback language and finally the key.
func (b *Bundle) T(lang, key string, params map[string]any) string {
	v, ok := b.lookup(lang, key)
	if !ok {
		return key
	}
	return interpolate(v, params)
}

// TDefault is T without params that returns def when key is missing everywhere.
func (b *Bundle) TDefault(lang, key, def string) string {
	if v, ok := b.lookup(lang, key); ok {
		return v
	}
	return def
}

func (b *Bundle) lookup(lang, key string) (string, bool) {
	if norm, err := b.Normalize(lang); err == nil {
		if v, ok := b.dict[norm][key]; ok {
			return v, true
		}
	}
	v, ok := b.dict[b.fallback][key]
	return v, ok
}

func interpolate(s string, params map[string]any) string {
	if len(params) == 0 {
		return s
	}
	return placeholderPattern.ReplaceAllStringFunc(s, func(match string) string {
		v, ok := params[match[1:len(match)-1]]
		if !ok || v == nil {
			return match
		}
		if out := fmt.Sprint(v); out != "" {
			return out
		}
		return match
	})
}

// Messages returns the nested catalog for lang. The result is shared and
// must not be modified.
func (b *Bundle) Messages(lang string) (map[string]any, error) {
	norm, err := b.Normalize(lang)
	if err != nil {
		return nil, err
	}
	if tree, ok := b.trees[norm]; ok {
		return tree, nil
	}
	return b.trees[b.fallback], nil
}

// Resolve chooses the best supported language from an Accept-Language header.
func (b *Bundle) Resolve(acceptLang string) string {
	tags, _, err := language.ParseAcceptLanguage(acceptLang)
	if err != nil || len(tags) == 0 {
		return b.def
	}
	_, idx, conf := b.matcher.Match(tags...)
	if conf == language.No || idx < 0 || idx >= len(b.order) {
		return b.def
	}
	return b.order[idx]
}
