package main

import (
	"encoding/json"
	"flag"
	"os"

	"github.com/invopop/jsonschema"

	"skyisle/internal/domain/save"
	"skyisle/internal/platform/observability"
)

func main() {
	out := flag.String("o", "", "write the schema to this file instead of stdout")
	flag.Parse()
	logger := observability.NewLogger(os.Getenv("APP_ENV"), os.Getenv("LOG_LEVEL"))

	r := &jsonschema.Reflector{
		RequiredFromJSONSchemaTags: true,
		DoNotReference:             true,
	}
	schema := r.Reflect(&save.Record{})
	schema.Title = "Sky Island save record"

	b, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		logger.Fatal().Err(err).Msg("marshal schema failed")
	}
	b = append(b, '\n')
	if *out == "" {
		_, _ = os.Stdout.Write(b)
		return
	}
	if err := os.WriteFile(*out, b, 0o644); err != nil {
		logger.Fatal().Err(err).Str("path", *out).Msg("write schema failed")
	}
}
