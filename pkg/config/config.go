package config

import (
	"fmt"
	"os"
	"reflect"
	"strings"

	"github.com/mcuadros/go-defaults"
	"gopkg.in/yaml.v3"
)

const EnvPrefix = "PLAYER"

type (
	Log struct {
		Level     string `default:"info" desc:"log level: trace, debug, info, warn, error"`
		Path      string `desc:"directory for rotated log files, console only when empty"`
		MaxSize   uint64 `default:"1048576" yaml:"maxsize" desc:"log file size in bytes"`
		MaxFiles  uint64 `default:"7" yaml:"maxfiles" desc:"rotated files kept"`
		Formatter string `default:"2006-01-02T15" desc:"log file name layout"`
	}
	Diagnostics struct {
		BufferSize int `default:"64" yaml:"buffersize" desc:"events buffered before new ones are dropped"`
	}
	Stream struct {
		Name        string
		Init        string   `desc:"init segment file"`
		Segments    []string `desc:"media segment files or glob patterns, in playback order"`
		HDROverride bool     `yaml:"hdroverride" desc:"per-stream HDR codec tag override"`
	}
	Demux struct {
		HDROverride bool `default:"false" yaml:"hdroverride" desc:"emit HDR codec tags for HEVC tracks"`
		Log         Log
		Diagnostics Diagnostics
		Streams     []Stream
	}
)

// Load applies struct defaults, then the YAML file at path (if any), then
// PLAYER_* environment variables.
func Load(path string) (*Demux, error) {
	var conf Demux
	defaults.SetDefaults(&conf)
	if path != "" {
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err = yaml.Unmarshal(content, &conf); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	}
	if err := ParseEnv(&conf, EnvPrefix); err != nil {
		return nil, err
	}
	return &conf, nil
}

// ParseEnv overrides scalar fields of the struct pointed to by target from
// environment variables named PREFIX_FIELD_SUBFIELD, upper-cased.
func ParseEnv(target any, prefix ...string) error {
	v := reflect.ValueOf(target)
	if v.Kind() != reflect.Pointer || v.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("config: %T is not a struct pointer", target)
	}
	return parseEnv(v.Elem(), prefix)
}

func parseEnv(v reflect.Value, prefix []string) error {
	t := v.Type()
	for i, j := 0, t.NumField(); i < j; i++ {
		ft, fv := t.Field(i), v.Field(i)
		if !ft.IsExported() {
			continue
		}
		name := append(prefix[:len(prefix):len(prefix)], strings.ToUpper(ft.Name))
		switch ft.Type.Kind() {
		case reflect.Struct:
			if err := parseEnv(fv, name); err != nil {
				return err
			}
		case reflect.Slice, reflect.Map, reflect.Pointer, reflect.Interface:
		default:
			envValue, ok := os.LookupEnv(strings.Join(name, "_"))
			if !ok || envValue == "" {
				continue
			}
			if err := assign(fv, strings.ToLower(ft.Name), envValue); err != nil {
				return fmt.Errorf("%s: %w", strings.Join(name, "_"), err)
			}
		}
	}
	return nil
}

// assign decodes a textual value into field through a one-field YAML document.
func assign(field reflect.Value, k string, v string) error {
	tmpStruct := reflect.StructOf([]reflect.StructField{
		{
			Name: strings.ToUpper(k),
			Type: field.Type(),
			Tag:  reflect.StructTag(fmt.Sprintf(`yaml:"%s"`, k)),
		},
	})
	tmpValue := reflect.New(tmpStruct)
	if err := yaml.Unmarshal([]byte(fmt.Sprintf("%s: %s", k, v)), tmpValue.Interface()); err != nil {
		return err
	}
	field.Set(tmpValue.Elem().Field(0))
	return nil
}
