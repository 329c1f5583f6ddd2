// Package i18n translates user-facing text through a LibreTranslate-compatible backend.
//
// Translation is best effort: any failure yields the original text with a Fallback outcome,
// so callers never have to handle errors on the rendering path.
package i18n

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/nexusfarm/nexus/internal/clientdata"
	"github.com/rs/zerolog"
)

// SourceLanguage is the language all stored text is written in.
const SourceLanguage = "en"

const cacheTable = "translations"

// Outcome tells the caller whether Text is a real translation.
type Outcome int

const (
	// Translated means Text is in the requested language (or no translation was needed).
	Translated Outcome = iota
	// Fallback means the backend could not translate and Text is the original.
	Fallback
)

func (o Outcome) String() string {
	if o == Translated {
		return "translated"
	}
	return "fallback"
}

// MarshalJSON renders the outcome by name.
func (o Outcome) MarshalJSON() ([]byte, error) {
	return json.Marshal(o.String())
}

// Result of a translation
type Result struct {
	Text    string  `json:"text"`
	Outcome Outcome `json:"outcome"`
}

var langPattern = regexp.MustCompile(`^[a-z]{2,3}(-[a-z]{2,4})?$`)

// NormalizeLanguage lowercases code and reports whether it looks like a language tag.
func NormalizeLanguage(code string) (string, bool) {
	code = strings.ToLower(strings.TrimSpace(code))
	return code, langPattern.MatchString(code)
}

// Translator talks to the backend and caches results in memory and, when a repository is
// supplied, in the database.
type Translator struct {
	baseURL string
	apiKey  string
	client  *http.Client
	store   *clientdata.Repository
	log     zerolog.Logger

	mu    sync.RWMutex
	cache map[string]string
}

// NewTranslator creates a translator. An empty baseURL disables the backend.
// store is optional - if nil, only the in-memory cache is used.
func NewTranslator(baseURL, apiKey string, store *clientdata.Repository, log zerolog.Logger) *Translator {
	return &Translator{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 10 * time.Second},
		store:   store,
		log:     log.With().Str("client", "libretranslate").Logger(),
		cache:   make(map[string]string),
	}
}

// Enabled reports whether a backend is configured.
func (t *Translator) Enabled() bool {
	return t != nil && t.baseURL != ""
}

// Translate renders text in lang.
func (t *Translator) Translate(ctx context.Context, text, lang string) Result {
	lang, _ = NormalizeLanguage(lang)
	if lang == "" || lang == SourceLanguage || strings.TrimSpace(text) == "" {
		return Result{Text: text, Outcome: Translated}
	}
	if !t.Enabled() {
		return Result{Text: text, Outcome: Fallback}
	}

	key := lang + ":" + text
	if cached, ok := t.lookup(key); ok {
		return Result{Text: cached, Outcome: Translated}
	}

	translated, err := t.fetch(ctx, text, lang)
	if err != nil {
		if stale, ok := t.stale(key); ok {
			t.log.Warn().Err(err).Str("lang", lang).Msg("Backend failed, using stale cached translation")
			return Result{Text: stale, Outcome: Translated}
		}
		t.log.Warn().Err(err).Str("lang", lang).Msg("Translation failed, returning original text")
		return Result{Text: text, Outcome: Fallback}
	}

	t.remember(key, translated)
	return Result{Text: translated, Outcome: Translated}
}

type cachedTranslation struct {
	Text string `json:"text"`
}

func (t *Translator) lookup(key string) (string, bool) {
	t.mu.RLock()
	text, ok := t.cache[key]
	t.mu.RUnlock()
	if ok {
		return text, true
	}
	if t.store == nil {
		return "", false
	}

	data, err := t.store.GetIfFresh(cacheTable, key)
	if err != nil || data == nil {
		return "", false
	}
	var cached cachedTranslation
	if err := json.Unmarshal(data, &cached); err != nil {
		return "", false
	}

	t.mu.Lock()
	t.cache[key] = cached.Text
	t.mu.Unlock()
	return cached.Text, true
}

func (t *Translator) stale(key string) (string, bool) {
	if t.store == nil {
		return "", false
	}
	data, err := t.store.Get(cacheTable, key)
	if err != nil || data == nil {
		return "", false
	}
	var cached cachedTranslation
	if err := json.Unmarshal(data, &cached); err != nil {
		return "", false
	}
	return cached.Text, true
}

func (t *Translator) remember(key, text string) {
	t.mu.Lock()
	t.cache[key] = text
	t.mu.Unlock()

	if t.store != nil {
		if err := t.store.Store(cacheTable, key, cachedTranslation{Text: text}, clientdata.TTLTranslation); err != nil {
			t.log.Warn().Err(err).Msg("Failed to cache translation")
		}
	}
}

type translateRequest struct {
	Q      string `json:"q"`
	Source string `json:"source"`
	Target string `json:"target"`
	Format string `json:"format"`
	APIKey string `json:"api_key,omitempty"`
}

type translateResponse struct {
	TranslatedText string `json:"translatedText"`
	Error          string `json:"error"`
}

func (t *Translator) fetch(ctx context.Context, text, lang string) (string, error) {
	body, err := json.Marshal(translateRequest{
		Q:      text,
		Source: "auto",
		Target: lang,
		Format: "text",
		APIKey: t.apiKey,
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.baseURL+"/translate", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	var out translateResponse
	decodeErr := json.NewDecoder(resp.Body).Decode(&out)

	if resp.StatusCode != http.StatusOK {
		if out.Error != "" {
			return "", fmt.Errorf("API returned status %d: %s", resp.StatusCode, out.Error)
		}
		return "", fmt.Errorf("API returned status %d", resp.StatusCode)
	}
	if decodeErr != nil {
		return "", fmt.Errorf("failed to parse response: %w", decodeErr)
	}
	if out.TranslatedText == "" {
		return "", errors.New("empty translation in response")
	}
	return out.TranslatedText, nil
}
