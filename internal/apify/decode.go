package apify

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed ig_post_item.schema.json
var igPostItemSchemaJSON string

//go:embed ig_comment_item.schema.json
var igCommentItemSchemaJSON string

//go:embed fb_comment_item.schema.json
var fbCommentItemSchemaJSON string

var (
	compileOnce        sync.Once
	postItemSchema     *jsonschema.Schema
	commentItemSchema  *jsonschema.Schema
	fbCommentSchema    *jsonschema.Schema
	compiledSchemasErr error
)

// DecodePostItems validates and decodes raw Instagram post items. Items
// that fail schema validation are skipped and counted; a wrong-shaped item
// is a data-integrity problem, never a batch failure.
func DecodePostItems(raw []json.RawMessage, logger zerolog.Logger) ([]PostItem, int) {
	return decodeItems[PostItem](raw, "ig_post_item.schema.json", logger)
}

// DecodeCommentItems validates and decodes raw Instagram comment items.
func DecodeCommentItems(raw []json.RawMessage, logger zerolog.Logger) ([]CommentItem, int) {
	return decodeItems[CommentItem](raw, "ig_comment_item.schema.json", logger)
}

// DecodeFBCommentItems validates and decodes raw Facebook comment items.
func DecodeFBCommentItems(raw []json.RawMessage, logger zerolog.Logger) ([]FBCommentItem, int) {
	return decodeItems[FBCommentItem](raw, "fb_comment_item.schema.json", logger)
}

func decodeItems[T any](raw []json.RawMessage, schemaName string, logger zerolog.Logger) ([]T, int) {
	out := make([]T, 0, len(raw))
	invalid := 0
	for _, payload := range raw {
		var item T
		if err := validateItem(payload, schemaName); err != nil {
			invalid++
			logger.Warn().Err(err).Str("schema", schemaName).
				Str("payload", truncate(string(payload), 200)).
				Msg("skipping raw item that fails schema validation")
			continue
		}
		if err := json.Unmarshal(payload, &item); err != nil {
			invalid++
			logger.Warn().Err(err).Str("schema", schemaName).
				Msg("skipping raw item that fails decoding")
			continue
		}
		out = append(out, item)
	}
	return out, invalid
}

func validateItem(payload json.RawMessage, schemaName string) error {
	schema, err := loadSchema(schemaName)
	if err != nil {
		return err
	}

	decoder := json.NewDecoder(bytes.NewReader(payload))
	decoder.UseNumber()
	var value any
	if err := decoder.Decode(&value); err != nil {
		return fmt.Errorf("decode item JSON: %w", err)
	}
	if err := schema.Validate(value); err != nil {
		return fmt.Errorf("schema validation failed: %w", err)
	}
	return nil
}

func loadSchema(name string) (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		compiler.Draft = jsonschema.Draft2020

		sources := map[string]string{
			"ig_post_item.schema.json":    igPostItemSchemaJSON,
			"ig_comment_item.schema.json": igCommentItemSchemaJSON,
			"fb_comment_item.schema.json": fbCommentItemSchemaJSON,
		}
		for resourceName, source := range sources {
			if err := compiler.AddResource(resourceName, strings.NewReader(source)); err != nil {
				compiledSchemasErr = fmt.Errorf("add schema resource %s: %w", resourceName, err)
				return
			}
		}

		var err error
		if postItemSchema, err = compiler.Compile("ig_post_item.schema.json"); err != nil {
			compiledSchemasErr = fmt.Errorf("compile post item schema: %w", err)
			return
		}
		if commentItemSchema, err = compiler.Compile("ig_comment_item.schema.json"); err != nil {
			compiledSchemasErr = fmt.Errorf("compile comment item schema: %w", err)
			return
		}
		if fbCommentSchema, err = compiler.Compile("fb_comment_item.schema.json"); err != nil {
			compiledSchemasErr = fmt.Errorf("compile facebook comment item schema: %w", err)
			return
		}
	})
	if compiledSchemasErr != nil {
		return nil, compiledSchemasErr
	}

	switch name {
	case "ig_post_item.schema.json":
		return postItemSchema, nil
	case "ig_comment_item.schema.json":
		return commentItemSchema, nil
	case "fb_comment_item.schema.json":
		return fbCommentSchema, nil
	default:
		return nil, fmt.Errorf("unknown schema %q", name)
	}
}
