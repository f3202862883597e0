package args

import (
	"bytes"
	"context"
	"encoding/json"
	"path"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"

	"github.com/turtacn/molgen/internal/generative/artifact"
	"github.com/turtacn/molgen/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/molgen/pkg/errors"
)

// DefaultExpectedDataset is the dataset generator runs must be trained on.
const DefaultExpectedDataset = "qm9_second_half"

// Format is an args file encoding.
type Format string

const (
	FormatJSON   Format = "json"
	FormatYAML   Format = "yaml"
	FormatTOML   Format = "toml"
	FormatPickle Format = "pickle"
)

// candidateExts is the lookup order for args<epoch>.<ext>.  Training runs
// write .pickle; the text formats are for hand-written or converted args.
var candidateExts = []string{".pickle", ".json", ".yaml", ".yml", ".toml"}

// FormatFromPath infers the encoding from a file extension.
func FormatFromPath(p string) (Format, bool) {
	switch strings.ToLower(path.Ext(p)) {
	case ".json":
		return FormatJSON, true
	case ".yaml", ".yml":
		return FormatYAML, true
	case ".toml":
		return FormatTOML, true
	case ".pickle", ".pkl":
		return FormatPickle, true
	default:
		return "", false
	}
}

// DecodeRaw parses an args document into a flat key/value map.
func DecodeRaw(format Format, data []byte) (map[string]any, error) {
	raw := map[string]any{}
	var err error
	switch format {
	case FormatJSON:
		err = json.NewDecoder(bytes.NewReader(data)).Decode(&raw)
	case FormatYAML:
		err = yaml.Unmarshal(data, &raw)
	case FormatTOML:
		err = toml.Unmarshal(data, &raw)
	case FormatPickle:
		raw, err = decodePickle(data)
	default:
		return nil, errors.ConfigurationError("unsupported args format").WithDetail(string(format))
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeArtifactLoad, "failed to decode generator args").WithDetail(string(format))
	}
	return raw, nil
}

// Decode converts a migrated map into GeneratorArgs and returns the keys
// that have no matching field.
func Decode(migrated map[string]any) (*GeneratorArgs, []string, error) {
	var out GeneratorArgs
	var md mapstructure.Metadata
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &out,
		Metadata:         &md,
		WeaklyTypedInput: true,
		TagName:          "mapstructure",
	})
	if err != nil {
		return nil, nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to build args decoder")
	}
	if err := dec.Decode(migrated); err != nil {
		return nil, nil, errors.Wrap(err, errors.ErrCodeConfiguration, "generator args have invalid field types")
	}
	sort.Strings(md.Unused)
	return &out, md.Unused, nil
}

// Option configures a Loader.
type Option func(*Loader)

// WithExpectedDataset overrides DefaultExpectedDataset.
func WithExpectedDataset(name string) Option {
	return func(l *Loader) { l.expectedDataset = name }
}

// WithLogger sets the logger.
func WithLogger(log logging.Logger) Option {
	return func(l *Loader) { l.logger = logging.OrNop(log) }
}

// Loader reads args files through an artifact.Opener and runs them
// through Migrate, Decode and Validate.
type Loader struct {
	opener          artifact.Opener
	expectedDataset string
	logger          logging.Logger
}

// NewLoader returns a Loader reading through opener.
func NewLoader(opener artifact.Opener, opts ...Option) *Loader {
	l := &Loader{
		opener:          opener,
		expectedDataset: DefaultExpectedDataset,
		logger:          logging.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load resolves args<epoch>.{pickle,json,yaml,yml,toml} under dir, trying the
// extensions in that order.  epoch may be empty.
func (l *Loader) Load(ctx context.Context, dir, epoch string) (*GeneratorArgs, error) {
	tried := make([]string, 0, len(candidateExts))
	for _, ext := range candidateExts {
		uri := artifact.Join(dir, "args"+epoch+ext)
		tried = append(tried, uri)
		out, err := l.LoadFile(ctx, uri)
		if errors.IsCode(err, errors.ErrCodeArtifactNotFound) {
			continue
		}
		return out, err
	}
	return nil, errors.New(errors.ErrCodeArtifactNotFound, "no generator args file found").
		WithDetail(strings.Join(tried, ", "))
}

// LoadFile reads one args file; its encoding comes from the extension.
func (l *Loader) LoadFile(ctx context.Context, uri string) (*GeneratorArgs, error) {
	format, ok := FormatFromPath(uri)
	if !ok {
		return nil, errors.ConfigurationError("cannot infer args format from file name").WithDetail(uri)
	}
	data, err := artifact.ReadAll(ctx, l.opener, uri)
	if err != nil {
		return nil, err
	}
	raw, err := DecodeRaw(format, data)
	if err != nil {
		return nil, err
	}
	out, err := l.Parse(raw)
	if err != nil {
		return nil, err
	}
	l.logger.Info("Loaded generator args",
		logging.String("uri", uri),
		logging.String("dataset", out.Dataset),
		logging.String("probabilistic_model", out.ProbabilisticModel),
		logging.Strings("conditioning", out.Conditioning),
	)
	return out, nil
}

// Parse migrates, decodes and validates a raw args map, and checks the
// dataset identity.
func (l *Loader) Parse(raw map[string]any) (*GeneratorArgs, error) {
	migrated, res, err := Migrate(raw)
	if err != nil {
		return nil, err
	}
	if len(res.Injected) > 0 {
		l.logger.Info("Migrated legacy generator args",
			logging.Int("from_version", res.FromVersion),
			logging.Int("to_version", res.ToVersion),
			logging.Strings("injected", res.Injected),
		)
	}
	out, unused, err := Decode(migrated)
	if err != nil {
		return nil, err
	}
	if len(unused) > 0 {
		l.logger.Debug("Ignoring generator args fields", logging.Strings("fields", unused))
	}
	if err := out.Validate(); err != nil {
		return nil, err
	}
	if l.expectedDataset != "" && out.Dataset != l.expectedDataset {
		return nil, errors.ConfigurationError("generator args were trained on a different dataset").
			WithDetail("expected=" + l.expectedDataset + " got=" + out.Dataset)
	}
	return out, nil
}

//Personal.AI order the ending
