// Package transform maps one raw harvested record into the canonical
// product schema: identifier generation, text normalization, tag and
// attribute derivation, price parsing.
package transform

import (
	"fmt"
	"path/filepath"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"unicode"

	"catalogbridge/lib/catalog"
	"catalogbridge/lib/textutil"

	"github.com/mazen160/go-random"
	xrunes "golang.org/x/text/runes"
	xtransform "golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const (
	defaultCategory    = "OTROS"
	defaultSubcategory = "Varios"

	shortDescriptionMax = 160
	metaTitleMax        = 60
	maxTags             = 10
	maxKeywords         = 5
)

// common Spanish filler words excluded from tags
var stopwords = map[string]bool{
	"de": true, "la": true, "el": true, "en": true, "para": true,
	"con": true, "y": true, "a": true, "por": true, "un": true,
	"una": true, "los": true, "las": true, "del": true, "al": true,
	"que": true, "se": true, "su": true, "producto": true, "este": true,
	"esta": true, "son": true, "más": true, "todo": true, "cada": true,
	"como": true, "desde": true, "hasta": true, "muy": true,
	"otros": true, "mismo": true, "también": true, "solo": true,
	"puede": true,
}

type Config struct {
	// Category/Subcategory are fixed placeholders until a real
	// taxonomy mapping exists.
	Category    string
	Subcategory string
	// ImagePathPrefix replaces the local download directory in image
	// URLs so the serving host can resolve them.
	ImagePathPrefix string
}

type Engine struct {
	cfg Config
	// randInt is pluggable so tests can pin the SKU suffix
	randInt func(min, max int) (int, error)
}

func New(cfg Config) *Engine {
	if cfg.Category == "" {
		cfg.Category = defaultCategory
	}
	if cfg.Subcategory == "" {
		cfg.Subcategory = defaultSubcategory
	}
	if cfg.ImagePathPrefix == "" {
		cfg.ImagePathPrefix = "datos/imagenes"
	}
	return &Engine{cfg: cfg, randInt: random.IntRange}
}

// SetRandSource overrides the random suffix source, for tests.
func (e *Engine) SetRandSource(f func(min, max int) (int, error)) {
	e.randInt = f
}

// Product converts one raw item into the canonical schema.
func (e *Engine) Product(item catalog.RawItem) catalog.Product {
	name := textutil.CollapseWhitespace(item.Title)
	if name == "" {
		name = "Producto sin nombre"
	}

	sku := e.SKU(name, e.cfg.Category, e.cfg.Subcategory)

	fullDesc := strings.TrimSpace(item.Description)
	shortDesc := ShortDescription(fullDesc, name)

	primary := joinSpecs(item.PrimarySpec)
	combined := joinAll(primary, joinSpecs(item.SalesSpec), joinSpecs(item.OtherSpec))

	tags := Tags(name, combined)
	price := Price(item.PriceText)

	p := catalog.Product{
		SKU:         sku,
		Name:        name,
		Slug:        Slug(name),
		Category:    e.cfg.Category,
		Subcategory: e.cfg.Subcategory,
		Description: &catalog.Description{Short: shortDesc, Full: fullDesc},
		Active:      true,
		Tags:        tags,
		Variants: []catalog.Variant{{
			Name:    "Estándar",
			Unit:    "unidades",
			Price:   price,
			SKU:     sku + "-VAR001",
			Default: true,
		}},
		Attributes: Attributes(combined),
		Brand:      Brand(primary),
		SEO: &catalog.SEO{
			MetaTitle:       textutil.TruncateRunes(name, metaTitleMax),
			MetaDescription: shortDesc,
			Keywords:        keywords(tags),
		},
	}

	if img := e.image(item, name); img != nil {
		p.Multimedia = &catalog.Multimedia{Images: []catalog.Image{*img}}
	}
	return p
}

// SKU derives `NOM-CAT-SUB-###`: alpha-only uppercase prefixes padded
// with X plus a random three digit suffix. The suffix is random by
// design; uniqueness rather than exact value is the invariant.
func (e *Engine) SKU(name, category, subcategory string) string {
	suffix, err := e.randInt(100, 1000)
	if err != nil {
		suffix = 999
	}
	return fmt.Sprintf("%s-%s-%s-%d",
		alphaPrefix(name, 3),
		alphaPrefix(category, 4),
		alphaPrefix(subcategory, 3),
		suffix,
	)
}

var nonAlpha = regexp.MustCompile(`[^A-Za-z]`)

func alphaPrefix(s string, n int) string {
	s = nonAlpha.ReplaceAllString(strings.ToUpper(s), "")
	if len(s) >= n {
		return s[:n]
	}
	return s + strings.Repeat("X", n-len(s))
}

var (
	slugStrip    = regexp.MustCompile(`[^\w\s-]`)
	slugCollapse = regexp.MustCompile(`[-\s]+`)
)

// Slug produces a URL-safe identifier: diacritics stripped, lowered,
// punctuation removed, whitespace folded into single hyphens.
func Slug(name string) string {
	stripper := xtransform.Chain(norm.NFKD, xrunes.Remove(xrunes.In(unicode.Mn)), norm.NFC)
	ascii, _, err := xtransform.String(stripper, name)
	if err != nil {
		ascii = name
	}
	// anything still non-ASCII after decomposition is dropped
	ascii = strings.Map(func(r rune) rune {
		if r > unicode.MaxASCII {
			return -1
		}
		return r
	}, ascii)

	s := strings.ToLower(ascii)
	s = slugStrip.ReplaceAllString(s, "")
	s = slugCollapse.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// ShortDescription derives the ≤160 char short form. Without a full
// description the title is truncated instead.
func ShortDescription(full, title string) string {
	if full == "" {
		return textutil.TruncateRunes(title, shortDescriptionMax)
	}
	if len([]rune(full)) <= shortDescriptionMax {
		return full
	}
	return textutil.TruncateRunes(full, shortDescriptionMax-3) + "..."
}

var priceKeep = regexp.MustCompile(`[^\d,]`)

// Price parses noisy price text into an integer amount. The comma is
// the decimal separator; the fraction is truncated. Unparsable input
// yields 0.
func Price(text string) int {
	cleaned := priceKeep.ReplaceAllString(text, "")
	cleaned = strings.ReplaceAll(cleaned, ",", ".")
	f, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0
	}
	return int(f)
}

var brandRegex = regexp.MustCompile(`Marca:\s*([^|]+)`)

// Brand extracts the value of a literal `Marca:` label from the
// primary characteristics text.
func Brand(primaryCharacteristics string) string {
	m := brandRegex.FindStringSubmatch(primaryCharacteristics)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m[1])
}

// Attributes parses a pipe-delimited `key: value` string into a typed
// attribute mapping, coercing numeric-looking values.
func Attributes(characteristics string) map[string]any {
	if characteristics == "" {
		return nil
	}
	attrs := map[string]any{}
	for _, part := range strings.Split(characteristics, "|") {
		part = strings.TrimSpace(part)
		key, value, found := strings.Cut(part, ":")
		if !found {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		attrs[key] = coerce(value)
	}
	if len(attrs) == 0 {
		return nil
	}
	return attrs
}

func coerce(value string) any {
	if strings.Contains(value, ".") {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	} else if n, err := strconv.Atoi(value); err == nil {
		return n
	}
	return value
}

// letter runs considered tag candidates, including Spanish accents
var tagLetter = map[rune]bool{}

func init() {
	for _, r := range "abcdefghijklmnopqrstuvwxyzáéíóúñ" {
		tagLetter[r] = true
	}
}

// Tags derives the tag set: letter runs of the title (3–20 runes) plus
// the first five qualifying runs of the characteristics text (4–20
// runes), lowercased, stopwords dropped, deduplicated, sorted, capped
// at ten.
func Tags(title, characteristics string) []string {
	set := map[string]bool{}

	for _, word := range letterRuns(strings.ToLower(title), 3, 20) {
		if !stopwords[word] {
			set[word] = true
		}
	}
	candidates := letterRuns(strings.ToLower(characteristics), 4, 20)
	if len(candidates) > 5 {
		candidates = candidates[:5]
	}
	for _, word := range candidates {
		if !stopwords[word] {
			set[word] = true
		}
	}

	tags := make([]string, 0, len(set))
	for t := range set {
		tags = append(tags, t)
	}
	slices.Sort(tags)
	if len(tags) > maxTags {
		tags = tags[:maxTags]
	}
	return tags
}

// letterRuns returns maximal runs of tag letters whose rune length is
// within [min, max].
func letterRuns(s string, min, max int) []string {
	var runs []string
	var current []rune
	flush := func() {
		if len(current) >= min && len(current) <= max {
			runs = append(runs, string(current))
		}
		current = current[:0]
	}
	for _, r := range s {
		if tagLetter[r] {
			current = append(current, r)
			continue
		}
		flush()
	}
	flush()
	return runs
}

func keywords(tags []string) []string {
	if len(tags) > maxKeywords {
		return tags[:maxKeywords]
	}
	return tags
}

// image picks at most one image: the external URL when present,
// otherwise the downloaded file rewritten to the serving prefix.
func (e *Engine) image(item catalog.RawItem, name string) *catalog.Image {
	if item.ImageURL != "" {
		return &catalog.Image{URL: item.ImageURL, AltText: name, Primary: true}
	}
	if item.LocalImage != "" {
		return &catalog.Image{
			URL:     e.cfg.ImagePathPrefix + "/" + filepath.Base(item.LocalImage),
			AltText: name,
			Primary: true,
		}
	}
	return nil
}

// joinSpecs flattens an ordered spec block into the pipe-delimited
// `label: value` form the attribute and brand parsers consume.
func joinSpecs(block catalog.SpecBlock) string {
	if len(block) == 0 {
		return ""
	}
	parts := make([]string, len(block))
	for i, s := range block {
		parts[i] = fmt.Sprintf("%s: %s", s.Label, s.Value)
	}
	return strings.Join(parts, " | ")
}

func joinAll(parts ...string) string {
	var nonEmpty []string
	for _, p := range parts {
		if p != "" {
			nonEmpty = append(nonEmpty, p)
		}
	}
	return strings.Join(nonEmpty, " | ")
}
