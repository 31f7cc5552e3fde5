// Package locale translates API messages using TOML bundles selected by the
// request's Accept-Language header. Spanish is the fallback language.
package locale

import (
	"io/fs"
	"strings"

	"github.com/prestamos-sa/prestamos/logger"

	"github.com/gin-gonic/gin"
	"github.com/nicksnyder/go-i18n/v2/i18n"
	"github.com/pelletier/go-toml/v2"
	"golang.org/x/text/language"
)

const localizerKey = "localizer"

var i18nBundle *i18n.Bundle

// InitLocalizer parses every file under translation/ in fsys. It must run
// before the server accepts requests; the bundle is read-only afterwards.
func InitLocalizer(fsys fs.FS) error {
	bundle := i18n.NewBundle(language.Spanish)
	bundle.RegisterUnmarshalFunc("toml", toml.Unmarshal)

	if err := parseTranslationFiles(fsys, bundle); err != nil {
		return err
	}
	i18nBundle = bundle
	return nil
}

func createTemplateData(params []string) map[string]any {
	templateData := make(map[string]any)
	for _, param := range params {
		parts := strings.SplitN(param, "==", 2)
		if len(parts) == 2 {
			templateData[parts[0]] = parts[1]
		}
	}
	return templateData
}

// I18n translates key for the request. Params are "name==value" pairs. The
// key itself is returned when no translation is available.
func I18n(c *gin.Context, key string, params ...string) string {
	var localizer *i18n.Localizer
	if v, ok := c.Get(localizerKey); ok {
		localizer, _ = v.(*i18n.Localizer)
	}
	if localizer == nil {
		return key
	}

	msg, err := localizer.Localize(&i18n.LocalizeConfig{
		MessageID:    key,
		TemplateData: createTemplateData(params),
	})
	if err != nil {
		logger.Warningf("failed to localize %q: %v", key, err)
		return key
	}
	return msg
}

// LocalizerMiddleware attaches a localizer for the Accept-Language header
// (or the lang query parameter) to the request.
func LocalizerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if i18nBundle != nil {
			lang := c.Query("lang")
			if lang == "" {
				lang = c.GetHeader("Accept-Language")
			}
			c.Set(localizerKey, i18n.NewLocalizer(i18nBundle, lang))
		}
		c.Next()
	}
}

func parseTranslationFiles(fsys fs.FS, bundle *i18n.Bundle) error {
	return fs.WalkDir(fsys, "translation", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		data, err := fs.ReadFile(fsys, path)
		if err != nil {
			return err
		}
		_, err = bundle.ParseMessageFileBytes(data, path)
		return err
	})
}
