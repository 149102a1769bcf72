package configuration

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/fulldump/goconfig"
	"gopkg.in/yaml.v3"

	"github.com/fulldump/recordlist/recordlist"
)

const (
	StorageMemory = "memory"
	StorageFile   = "file"
	StorageSQLite = "sqlite"
)

var ErrInvalid = errors.New("invalid configuration")

type Configuration struct {
	Name       string `usage:"list name, used for the slot key and file names"`
	Fields     string `usage:"comma separated field names"`
	IDStrategy string `usage:"id generator [auto|unixnano|uuid]"`
	IDPrefix   string `usage:"prefix for auto and unixnano ids"`
	Storage    string `usage:"where the list is saved [memory|file|sqlite]"`
	Dir        string `usage:"data directory"`
	Journal    bool   `usage:"append every change to a journal file"`
	SeedFile   string `usage:"YAML file with the records of an empty list"`
	LogLevel   string `usage:"log level [debug|info|warn|error]"`
	ShowConfig bool   `usage:"print config"`
	Version    bool   `usage:"show version and exit"`
}

func Default() *Configuration {
	return &Configuration{
		Name:       "users",
		Fields:     "userName,address",
		IDStrategy: "uuid",
		Storage:    StorageFile,
		Dir:        "data",
		LogLevel:   "info",
	}
}

// Read fills the defaults from flags, environment and config file.
func Read() *Configuration {
	c := Default()
	goconfig.Read(c)
	return c
}

func (c *Configuration) FieldNames() []string {
	names := []string{}
	for _, name := range strings.Split(c.Fields, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		names = append(names, name)
	}
	return names
}

func (c *Configuration) Validate() error {

	if c.Name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalid)
	}

	if len(c.FieldNames()) == 0 {
		return fmt.Errorf("%w: no fields", ErrInvalid)
	}

	_, err := recordlist.GeneratorByName(c.IDStrategy, c.IDPrefix)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}

	switch c.Storage {
	case StorageMemory:
	case StorageFile, StorageSQLite:
		if c.Dir == "" {
			return fmt.Errorf("%w: storage '%s' needs a dir", ErrInvalid, c.Storage)
		}
	default:
		return fmt.Errorf("%w: bad storage '%s', must be [file|memory|sqlite]", ErrInvalid, c.Storage)
	}

	if c.Journal && c.Dir == "" {
		return fmt.Errorf("%w: journal needs a dir", ErrInvalid)
	}

	return nil
}

// LoadSeed reads a YAML list of field mappings, one per record.
func LoadSeed(filename string) ([]recordlist.Fields, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("read seed: %w", err)
	}

	seed := []recordlist.Fields{}
	err = yaml.Unmarshal(data, &seed)
	if err != nil {
		return nil, fmt.Errorf("decode seed: %w", err)
	}

	return seed, nil
}
