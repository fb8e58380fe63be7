package logger

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
)

type Level int

const (
	Debug Level = iota
	Info
	Warn
	Error
)

var levelNames = [...]string{Debug: "debug", Info: "info", Warn: "warn", Error: "error"}

// "warning" se acepta como alias; vacío o desconocido cae en info.
var levelByName = map[string]Level{
	"debug":   Debug,
	"info":    Info,
	"warn":    Warn,
	"warning": Warn,
	"error":   Error,
}

func ParseLevel(s string) Level {
	if l, ok := levelByName[strings.ToLower(strings.TrimSpace(s))]; ok {
		return l
	}
	return Info
}

func (l Level) String() string {
	if l < Debug || int(l) >= len(levelNames) {
		return levelNames[Info]
	}
	return levelNames[l]
}

type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

func ParseFormat(s string) Format {
	if Format(strings.ToLower(strings.TrimSpace(s))) == FormatJSON {
		return FormatJSON
	}
	return FormatText
}

type Logger interface {
	With(fields map[string]any) Logger

	Debug(msg string, fields map[string]any)
	Info(msg string, fields map[string]any)
	Warn(msg string, fields map[string]any)
	Error(msg string, fields map[string]any)
}

// sink es el destino compartido entre un logger y sus derivados de With.
type sink struct {
	mu  sync.Mutex
	out io.Writer
	enc func(entry) []byte
}

func (s *sink) write(e entry) {
	line := append(s.enc(e), '\n')
	s.mu.Lock()
	defer s.mu.Unlock()
	_, _ = s.out.Write(line)
}

// StdLogger escribe una línea por entrada (key=value o JSON).
type StdLogger struct {
	sink  *sink
	level Level
	base  map[string]any
}

type Options struct {
	Level  Level
	Format Format
	App    string
	Out    io.Writer // default os.Stdout
}

func New(opts Options) Logger {
	s := &sink{out: opts.Out, enc: encodeText}
	if s.out == nil {
		s.out = os.Stdout
	}
	if opts.Format == FormatJSON {
		s.enc = encodeJSON
	}

	l := &StdLogger{sink: s, level: opts.Level, base: map[string]any{}}
	if app := strings.TrimSpace(opts.App); app != "" {
		l.base["app"] = app
	}
	return l
}

// NewFromEnv lee LOG_LEVEL, LOG_FORMAT y APP_NAME (default pdfshare). Solo se usa
// antes de tener config, para reportar errores de arranque.
func NewFromEnv() Logger {
	app := strings.TrimSpace(os.Getenv("APP_NAME"))
	if app == "" {
		app = "pdfshare"
	}
	return New(Options{
		Level:  ParseLevel(os.Getenv("LOG_LEVEL")),
		Format: ParseFormat(os.Getenv("LOG_FORMAT")),
		App:    app,
	})
}

func (l *StdLogger) With(fields map[string]any) Logger {
	if len(fields) == 0 {
		return l
	}
	child := &StdLogger{sink: l.sink, level: l.level, base: make(map[string]any, len(l.base)+len(fields))}
	merge(child.base, l.base)
	merge(child.base, fields)
	return child
}

func (l *StdLogger) Debug(msg string, fields map[string]any) { l.emit(Debug, msg, fields) }
func (l *StdLogger) Info(msg string, fields map[string]any)  { l.emit(Info, msg, fields) }
func (l *StdLogger) Warn(msg string, fields map[string]any)  { l.emit(Warn, msg, fields) }
func (l *StdLogger) Error(msg string, fields map[string]any) { l.emit(Error, msg, fields) }

func (l *StdLogger) emit(lvl Level, msg string, fields map[string]any) {
	if lvl < l.level {
		return
	}
	e := make(entry, len(l.base)+len(fields)+3)
	merge(e, l.base)
	merge(e, fields)
	e["ts"] = time.Now().UTC().Format(time.RFC3339Nano)
	e["level"] = lvl.String()
	e["msg"] = msg
	l.sink.write(e)
}

type entry map[string]any

// merge copia src en dst; descarta claves vacías y aplana errores a su mensaje.
func merge(dst, src map[string]any) {
	for k, v := range src {
		if strings.TrimSpace(k) == "" {
			continue
		}
		if err, ok := v.(error); ok {
			v = err.Error()
		}
		dst[k] = v
	}
}

func encodeJSON(e entry) []byte {
	b, err := json.Marshal(map[string]any(e))
	if err != nil {
		return []byte(fmt.Sprintf(`{"level":"error","msg":"log entry not encodable","err":%q}`, err.Error()))
	}
	return b
}

// encodeText ordena las claves para que la salida sea estable.
func encodeText(e entry) []byte {
	keys := make([]string, 0, len(e))
	for k := range e {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(textValue(e[k]))
	}
	return []byte(b.String())
}

func textValue(v any) string {
	s := fmt.Sprint(v)
	if strings.ContainsAny(s, " \t\n\"=") {
		return strconv.Quote(s)
	}
	return s
}

// Nop descarta todo; útil en tests y como default cuando no inyectan logger.
func Nop() Logger { return nopLogger{} }

type nopLogger struct{}

func (n nopLogger) With(map[string]any) Logger { return n }
func (nopLogger) Debug(string, map[string]any) {}
func (nopLogger) Info(string, map[string]any)  {}
func (nopLogger) Warn(string, map[string]any)  {}
func (nopLogger) Error(string, map[string]any) {}
