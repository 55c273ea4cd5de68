package logger

import (
	"io"
	"net/http"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func Setup(dev bool) zerolog.Logger {
	return New(os.Stderr, dev)
}

// New builds the logger Setup installs, writing to w.
func New(w io.Writer, dev bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if dev {
		level = zerolog.DebugLevel
	}

	logger := zerolog.New(w).Level(level).With().Timestamp().Caller().Logger()

	if dev {
		logger = logger.Output(zerolog.ConsoleWriter{Out: w, FormatTimestamp: func(i any) string {
			return time.Now().Format(time.RFC3339)
		}}).Level(level).With().Stack().Logger()
	}

	return logger
}

var _ http.RoundTripper = (*Transport)(nil)

// Transport logs every round trip with its outcome and duration.
type Transport struct {
	next http.RoundTripper
}

// NewTransport wraps next, or http.DefaultTransport when next is nil.
func NewTransport(next http.RoundTripper) *Transport {
	if next == nil {
		next = http.DefaultTransport
	}
	return &Transport{next: next}
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	started := time.Now()

	logger := log.Ctx(req.Context())
	if logger.GetLevel() == zerolog.Disabled {
		l := log.Logger
		logger = &l
	}

	resp, err := t.next.RoundTrip(req)
	if err != nil {
		logger.Error().
			Err(err).
			Str("method", req.Method).
			Str("url", req.URL.Redacted()).
			Str("request_id", req.Header.Get("X-Request-Id")).
			Dur("duration", time.Since(started)).
			Msg("http request")

		return resp, err
	}

	logger.Debug().
		Str("method", req.Method).
		Str("url", req.URL.Redacted()).
		Str("request_id", req.Header.Get("X-Request-Id")).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(started)).
		Msg("http request")

	return resp, nil
}
