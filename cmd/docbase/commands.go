package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"docbase.evalgo.org/adapter"
	"docbase.evalgo.org/query"
)

// collectionFlags are the flags every subcommand shares for identifying
// the target collection and (where applicable) the filter/options.
type collectionFlags struct {
	collection string
	filter     string
	id         string
	update     string
	sort       string
	fields     string
	limit      int
	skip       int
	page       int
	returnType string
	maxReturn  int
}

func addCommonFlags(cmd *cobra.Command, f *collectionFlags, withFilter, withID, withUpdate, withFind bool) {
	cmd.Flags().StringVar(&f.collection, "collection", "", "collection name (required)")
	_ = cmd.MarkFlagRequired("collection")
	if withFilter {
		cmd.Flags().StringVar(&f.filter, "filter", "", "JSON filter object")
	}
	if withID {
		cmd.Flags().StringVar(&f.id, "id", "", "target document id")
		_ = cmd.MarkFlagRequired("id")
	}
	if withUpdate {
		cmd.Flags().StringVar(&f.update, "update", "", "JSON update document")
		cmd.Flags().StringVar(&f.returnType, "return-type", "", "count, ids, documents, or document")
		cmd.Flags().IntVar(&f.maxReturn, "max-return", 50, "cap on returned ids/documents")
	}
	if withFind {
		cmd.Flags().StringVar(&f.sort, "sort", "", "JSON sort spec, e.g. {\"field\":-1}")
		cmd.Flags().StringVar(&f.fields, "fields", "", "JSON projection spec, e.g. {\"id\":1}")
		cmd.Flags().IntVar(&f.limit, "limit", 0, "page size")
		cmd.Flags().IntVar(&f.skip, "skip", 0, "number of matches to skip")
		cmd.Flags().IntVar(&f.page, "page", 0, "1-based page number (alternative to --skip)")
	}
}

func buildOptions(f *collectionFlags) (map[string]any, error) {
	opts := map[string]any{}
	if f.sort != "" {
		var spec query.SortSpec
		if err := json.Unmarshal([]byte(f.sort), &spec); err != nil {
			return nil, fmt.Errorf("--sort: invalid JSON: %w", err)
		}
		opts["sort"] = spec
	}
	if f.fields != "" {
		v, err := parseJSONFlag("fields", f.fields)
		if err != nil {
			return nil, err
		}
		opts["fields"] = v
	}
	if f.limit > 0 {
		opts["limit"] = f.limit
	}
	if f.skip > 0 {
		opts["skip"] = f.skip
	}
	if f.page > 0 {
		opts["page"] = f.page
	}
	if f.returnType != "" {
		opts["returnType"] = f.returnType
	}
	if f.maxReturn > 0 {
		opts["maxReturn"] = f.maxReturn
	}
	return opts, nil
}

func endpointFor(collection, sub string) string {
	if sub == "" {
		return "/collections/" + collection
	}
	return "/collections/" + collection + "/" + sub
}

func run(verb, sub string, f *collectionFlags, includeFilter, includeUpdate bool) error {
	rt, err := newRuntime()
	if err != nil {
		return err
	}
	defer rt.close()

	payload := map[string]any{}
	if includeFilter && f.filter != "" {
		filterMap, err := parseJSONFlag("filter", f.filter)
		if err != nil {
			return err
		}
		payload[adapter.PayloadFilters] = filterMap
	}
	if includeUpdate {
		if f.update == "" {
			return fmt.Errorf("--update is required")
		}
		updateMap, err := parseJSONFlag("update", f.update)
		if err != nil {
			return err
		}
		payload[adapter.PayloadUpdate] = updateMap
	}
	opts, err := buildOptions(f)
	if err != nil {
		return err
	}
	if len(opts) > 0 {
		payload[adapter.PayloadOptions] = opts
	}

	env, err := rt.router.Do(context.Background(), verb, endpointFor(f.collection, sub), payload)
	if err != nil {
		return printEnvelope(adapter.ErrorEnvelopeFor(err))
	}
	return printEnvelope(env)
}

func newFindCmd() *cobra.Command {
	f := &collectionFlags{}
	cmd := &cobra.Command{
		Use:   "find",
		Short: "find documents matching a filter",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(adapter.VerbGet, "", f, true, false)
		},
	}
	addCommonFlags(cmd, f, true, false, false, true)
	return cmd
}

func newGetCmd() *cobra.Command {
	f := &collectionFlags{}
	cmd := &cobra.Command{
		Use:   "get",
		Short: "fetch a single document by id",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(adapter.VerbGet, f.id, f, false, false)
		},
	}
	addCommonFlags(cmd, f, false, true, false, true)
	return cmd
}

func newCountCmd() *cobra.Command {
	f := &collectionFlags{}
	cmd := &cobra.Command{
		Use:   "count",
		Short: "count documents matching a filter",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(adapter.VerbGet, "count", f, true, false)
		},
	}
	addCommonFlags(cmd, f, true, false, false, false)
	return cmd
}

func newInsertCmd() *cobra.Command {
	f := &collectionFlags{}
	var documents string
	cmd := &cobra.Command{
		Use:   "insert",
		Short: "insert one or more documents, upserting on id collision",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime()
			if err != nil {
				return err
			}
			defer rt.close()

			var docs any
			if err := parseJSONInto(documents, &docs); err != nil {
				return fmt.Errorf("--documents: %w", err)
			}

			env, err := rt.router.Do(context.Background(), adapter.VerbPost, endpointFor(f.collection, ""),
				map[string]any{adapter.PayloadDocuments: docs})
			if err != nil {
				return printEnvelope(adapter.ErrorEnvelopeFor(err))
			}
			return printEnvelope(env)
		},
	}
	addCommonFlags(cmd, f, false, false, false, false)
	cmd.Flags().StringVar(&documents, "documents", "", "JSON document or array of documents (required)")
	_ = cmd.MarkFlagRequired("documents")
	return cmd
}

func newUpdateCmd() *cobra.Command {
	f := &collectionFlags{}
	cmd := &cobra.Command{
		Use:   "update",
		Short: "apply an update to every document matching a filter, or to one id",
		RunE: func(cmd *cobra.Command, args []string) error {
			if f.id != "" {
				return run(adapter.VerbPatch, f.id, f, false, true)
			}
			return run(adapter.VerbPatch, "", f, true, true)
		},
	}
	addCommonFlags(cmd, f, true, false, true, false)
	cmd.Flags().StringVar(&f.id, "id", "", "update a single document by id instead of by filter")
	return cmd
}

func newDeleteCmd() *cobra.Command {
	f := &collectionFlags{}
	cmd := &cobra.Command{
		Use:   "delete",
		Short: "delete documents matching a filter, or a single id",
		RunE: func(cmd *cobra.Command, args []string) error {
			if f.id != "" {
				return run(adapter.VerbDelete, f.id, f, false, false)
			}
			return run(adapter.VerbDelete, "", f, true, false)
		},
	}
	addCommonFlags(cmd, f, true, false, false, false)
	cmd.Flags().StringVar(&f.id, "id", "", "delete a single document by id instead of by filter")
	return cmd
}

func newDropCmd() *cobra.Command {
	f := &collectionFlags{}
	cmd := &cobra.Command{
		Use:   "drop",
		Short: "remove an entire collection",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(adapter.VerbDelete, "drop", f, false, false)
		},
	}
	addCommonFlags(cmd, f, false, false, false, false)
	return cmd
}
