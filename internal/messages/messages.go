// Package messages holds the user-facing notices of the bot in every
// supported language.
package messages

import (
	"fmt"
	"sort"
	"strings"
)

// DefaultLanguage is used for unknown languages and missing keys
const DefaultLanguage = "en"

// Message keys
const (
	KeyGreeting         = "greeting"
	KeyHelp             = "help"
	KeyNotAPlaylist     = "not_a_playlist"
	KeyBusy             = "busy"
	KeyServerBusy       = "server_busy"
	KeyLinkReceived     = "link_received"
	KeyResolutionFailed = "resolution_failed"
	KeyTrackCount       = "track_count"
	KeyTrackStarting    = "track_starting"
	KeyDeliveryFailed   = "delivery_failed"
	KeyTrackNotFound    = "track_not_found"
	KeyCompleted        = "completed"
	KeyCancelled        = "cancelled"
)

// Catalog manages notice translations
type Catalog struct {
	language string
	texts    map[string]map[string]string
}

// NewCatalog creates a catalog set to lang, falling back to English when
// lang is not available
func NewCatalog(lang string) *Catalog {
	c := &Catalog{
		language: DefaultLanguage,
		texts:    make(map[string]map[string]string),
	}
	c.initializeTexts()
	c.SetLanguage(lang)
	return c
}

// SetLanguage switches the catalog language; unknown languages are ignored
func (c *Catalog) SetLanguage(lang string) {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if _, exists := c.texts[lang]; exists {
		c.language = lang
	}
}

// Language returns the current language code
func (c *Catalog) Language() string {
	return c.language
}

// Languages returns the available language codes, sorted
func (c *Catalog) Languages() []string {
	langs := make([]string, 0, len(c.texts))
	for lang := range c.texts {
		langs = append(langs, lang)
	}
	sort.Strings(langs)
	return langs
}

// Text returns the notice for key in the current language
func (c *Catalog) Text(key string) string {
	if texts, exists := c.texts[c.language]; exists {
		if text, found := texts[key]; found {
			return text
		}
	}

	// Fallback to English
	if texts, exists := c.texts[DefaultLanguage]; exists {
		if text, found := texts[key]; found {
			return text
		}
	}

	// Final fallback - return key itself
	return key
}

// Format returns the notice for key with args substituted
func (c *Catalog) Format(key string, args ...any) string {
	if len(args) == 0 {
		return c.Text(key)
	}
	return fmt.Sprintf(c.Text(key), args...)
}

// initializeTexts initializes all text translations
func (c *Catalog) initializeTexts() {
	c.texts["en"] = map[string]string{
		KeyGreeting:         "Hi %s! Welcome to the playlist downloader bot.",
		KeyHelp:             "Send me a Spotify or YouTube playlist link and I will send every track back as an mp3.",
		KeyNotAPlaylist:     "That does not look like a playlist link.",
		KeyBusy:             "Your previous playlist is still in progress. Please wait until it finishes.",
		KeyServerBusy:       "The bot is busy right now. Please try again in a few minutes.",
		KeyLinkReceived:     "Link received. Extracting the track list...",
		KeyResolutionFailed: "Error! I could not extract the tracks of this playlist. Please make sure the playlist is public and the link is correct.",
		KeyTrackCount:       "✅ Your playlist has %d tracks. Starting download and delivery...",
		KeyTrackStarting:    "(%d/%d) ⏳ Downloading: %s",
		KeyDeliveryFailed:   "❌ Error sending track: %s",
		KeyTrackNotFound:    "⚠️ Sorry, I could not find or download '%s'.",
		KeyCompleted:        "🎉 Done! All tracks have been processed.",
		KeyCancelled:        "⏹ Stopped before the end of the playlist.",
	}

	c.texts["fa"] = map[string]string{
		KeyGreeting:         "سلام %s عزیز! به ربات دانلودر اسپاتیفای خوش آمدید.",
		KeyHelp:             "کافیست لینک پلی‌لیست اسپاتیفای یا یوتیوب را ارسال کنید تا همه آهنگ‌ها را به صورت mp3 برایتان بفرستم.",
		KeyNotAPlaylist:     "این لینک پلی‌لیست نیست.",
		KeyBusy:             "پلی‌لیست قبلی شما هنوز در حال پردازش است. لطفاً صبر کنید.",
		KeyServerBusy:       "ربات در حال حاضر مشغول است. لطفاً چند دقیقه دیگر دوباره تلاش کنید.",
		KeyLinkReceived:     "لینک دریافت شد. در حال استخراج لیست آهنگ‌ها...",
		KeyResolutionFailed: "خطا! نتوانستم آهنگ‌های این پلی‌لیست را استخراج کنم. لطفاً از عمومی بودن پلی‌لیست و صحیح بودن لینک مطمئن شوید.",
		KeyTrackCount:       "✅ پلی‌لیست شما شامل %d آهنگ است. شروع دانلود و ارسال...",
		KeyTrackStarting:    "(%d/%d) ⏳ در حال دانلود: %s",
		KeyDeliveryFailed:   "❌ خطا در ارسال آهنگ: %s",
		KeyTrackNotFound:    "⚠️ متاسفانه نتوانستم آهنگ '%s' را پیدا یا دانلود کنم.",
		KeyCompleted:        "🎉 تمام شد! همه آهنگ‌ها ارسال شدند.",
		KeyCancelled:        "⏹ پردازش پیش از پایان پلی‌لیست متوقف شد.",
	}

	c.texts["ru"] = map[string]string{
		KeyGreeting:         "Привет, %s! Добро пожаловать в бот для скачивания плейлистов.",
		KeyHelp:             "Отправьте ссылку на плейлист Spotify или YouTube, и я пришлю каждый трек в mp3.",
		KeyNotAPlaylist:     "Это не похоже на ссылку на плейлист.",
		KeyBusy:             "Предыдущий плейлист ещё обрабатывается. Пожалуйста, дождитесь окончания.",
		KeyServerBusy:       "Бот сейчас занят. Попробуйте через несколько минут.",
		KeyLinkReceived:     "Ссылка получена. Извлекаю список треков...",
		KeyResolutionFailed: "Ошибка! Не удалось получить треки плейлиста. Убедитесь, что плейлист публичный и ссылка верна.",
		KeyTrackCount:       "✅ В плейлисте %d треков. Начинаю скачивание и отправку...",
		KeyTrackStarting:    "(%d/%d) ⏳ Скачивание: %s",
		KeyDeliveryFailed:   "❌ Ошибка отправки трека: %s",
		KeyTrackNotFound:    "⚠️ К сожалению, не удалось найти или скачать «%s».",
		KeyCompleted:        "🎉 Готово! Все треки обработаны.",
		KeyCancelled:        "⏹ Остановлено до конца плейлиста.",
	}
}
