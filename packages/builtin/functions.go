package builtin

import (
	"fmt"
	"math/rand"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Func func(args []string) any

type Registry struct {
	funcs map[string]Func
	now   func() time.Time
}

func NewRegistry() *Registry {
	r := &Registry{
		funcs: make(map[string]Func),
		now:   time.Now,
	}
	r.registerDefaults()
	return r
}

func (r *Registry) registerDefaults() {
	r.funcs["now"] = r.funcNow
	r.funcs["timestamp"] = r.funcTimestamp
	r.funcs["date"] = r.funcDate
	r.funcs["uuid"] = funcUUID
	r.funcs["random"] = funcRandom
	r.funcs["randomString"] = funcRandomString
	r.funcs["amount"] = funcAmount
	r.funcs["dayOfMonth"] = funcDayOfMonth
}

func (r *Registry) Register(name string, fn Func) {
	r.funcs[name] = fn
}

// SetClock replaces the time source used by now(), timestamp() and date()
func (r *Registry) SetClock(now func() time.Time) {
	r.now = now
}

// Has reports whether a function is registered under name
func (r *Registry) Has(name string) bool {
	_, ok := r.funcs[name]
	return ok
}

var funcCallPattern = regexp.MustCompile(`^(\w+)\((.*)\)$`)

func (r *Registry) Call(expr string) (any, bool) {
	matches := funcCallPattern.FindStringSubmatch(expr)
	if matches == nil {
		return nil, false
	}

	name := matches[1]
	argsStr := matches[2]

	fn, ok := r.funcs[name]
	if !ok {
		return nil, false
	}

	var args []string
	if argsStr != "" {
		args = parseArgs(argsStr)
	}

	return fn(args), true
}

func parseArgs(s string) []string {
	var args []string
	var current strings.Builder
	inQuote := false
	quoteChar := byte(0)

	for i := 0; i < len(s); i++ {
		ch := s[i]
		if !inQuote && (ch == '"' || ch == '\'') {
			inQuote = true
			quoteChar = ch
		} else if inQuote && ch == quoteChar {
			inQuote = false
			quoteChar = 0
		} else if !inQuote && ch == ',' {
			args = append(args, strings.TrimSpace(current.String()))
			current.Reset()
		} else {
			current.WriteByte(ch)
		}
	}

	if current.Len() > 0 {
		args = append(args, strings.TrimSpace(current.String()))
	}

	return args
}

func (r *Registry) funcNow(_ []string) any {
	return r.now().UTC().Format(time.RFC3339)
}

func (r *Registry) funcTimestamp(_ []string) any {
	return r.now().Unix()
}

func (r *Registry) funcDate(args []string) any {
	format := "2006-01-02"
	if len(args) >= 1 && args[0] != "" {
		format = args[0]
	}
	t := r.now().UTC()
	if len(args) >= 2 {
		if days, err := strconv.Atoi(args[1]); err == nil {
			t = t.AddDate(0, 0, days)
		}
	}
	return t.Format(format)
}

func funcUUID(_ []string) any {
	return uuid.New().String()
}

func intArg(args []string, i, def int) int {
	if len(args) <= i {
		return def
	}
	v, err := strconv.Atoi(args[i])
	if err != nil {
		return def
	}
	return v
}

func funcRandom(args []string) any {
	min, max := intArg(args, 0, 0), intArg(args, 1, 100)
	if max < min {
		min, max = max, min
	}
	return rand.Intn(max-min+1) + min
}

func funcRandomString(args []string) any {
	return randomString(intArg(args, 0, 16), "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789")
}

// amount yields values like "1234.56" so payloads never carry float noise
func funcAmount(args []string) any {
	min, max := intArg(args, 0, 1), intArg(args, 1, 10000)
	if max < min {
		min, max = max, min
	}
	cents := rand.Intn((max-min)*100+1) + min*100
	return fmt.Sprintf("%d.%02d", cents/100, cents%100)
}

func funcDayOfMonth(_ []string) any {
	return rand.Intn(28) + 1
}

func randomString(length int, charset string) string {
	if length < 0 {
		length = 0
	}
	result := make([]byte, length)
	for i := 0; i < length; i++ {
		result[i] = charset[rand.Intn(len(charset))]
	}
	return string(result)
}
