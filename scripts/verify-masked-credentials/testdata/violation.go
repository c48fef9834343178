package violation

import (
	"github.com/rs/zerolog"

	"github.com/ManuGH/golive/internal/log"
)

func leak(l zerolog.Logger, key, url string) {
	l.Info().Str(log.FieldStreamKey, key).Msg("raw key")
	l.Info().Str(log.FieldBaseURL, url).Msg("raw url")
	l.Info().Str(log.FieldBaseURL, log.MaskKey(url)).Msg("wrong mask")
	l.Info().Str(log.FieldStreamKey, log.MaskKey(key)).Msg("masked")
	l.Info().Str(log.FieldBaseURL, log.MaskURL(url)).Msg("masked")
}
