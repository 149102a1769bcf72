package recordlist

import (
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/fulldump/recordlist/utils"
)

// IDGenerator returns a candidate id for a new record. The store discards
// candidates it has already handed out, so a generator only needs to be
// unlikely to repeat itself.
type IDGenerator func() string

// AutoGenerator counts from 1: prefix1, prefix2...
func AutoGenerator(prefix string) IDGenerator {
	counter := int64(0)
	return func() string {
		return prefix + strconv.FormatInt(atomic.AddInt64(&counter, 1), 10)
	}
}

func UUIDGenerator() IDGenerator {
	return uuid.NewString
}

// UnixNanoGenerator uses the current time in nanoseconds.
func UnixNanoGenerator(prefix string) IDGenerator {
	return func() string {
		return prefix + strconv.FormatInt(time.Now().UnixNano(), 10)
	}
}

var generators = map[string]func(prefix string) IDGenerator{
	"auto": AutoGenerator,
	"uuid": func(string) IDGenerator {
		return UUIDGenerator()
	},
	"unixnano": UnixNanoGenerator,
}

// GeneratorByName resolves "auto", "uuid" or "unixnano" (a trailing "()" is
// accepted). The prefix is ignored by uuid.
func GeneratorByName(name, prefix string) (IDGenerator, error) {
	f, exists := generators[strings.TrimSuffix(name, "()")]
	if !exists {
		return nil, fmt.Errorf("bad id generator '%s', must be [%s]", name, strings.Join(utils.GetKeys(generators), "|"))
	}
	return f(prefix), nil
}
