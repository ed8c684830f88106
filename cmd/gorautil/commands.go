package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	gora "github.com/renato2099/GoraJython"
	"github.com/renato2099/GoraJython/examples/generated"
)

func newGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Prints the page stored under key as JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  get,
	}
}

func get(cmd *cobra.Command, args []string) error {
	ds, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer ds.Close()

	rec, err := ds.Get(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	if rec == nil {
		return fmt.Errorf("%s: not found", args[0])
	}
	return printRow(cmd.OutOrStdout(), args[0], rec)
}

func newPutURLCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "put-url <key> <url>",
		Short: "Sets the url of the page stored under key, creating the page if needed",
		Args:  cobra.ExactArgs(2),
		RunE:  putURL,
	}
	cmd.Flags().StringToString("outlink", nil, "Outlinks to add, as url=anchor")
	return cmd
}

func putURL(cmd *cobra.Command, args []string) error {
	key, url := args[0], args[1]
	outlinks, err := cmd.Flags().GetStringToString("outlink")
	if err != nil {
		return err
	}

	ds, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer ds.Close()

	var page generated.WebPage
	rec, err := ds.Get(cmd.Context(), key)
	if err != nil {
		return err
	}
	if rec == nil || rec.IsTombstone() {
		page = generated.NewWebPage()
	} else {
		page = generated.WebPageFrom(rec)
	}
	page.SetURL(url)
	for u, anchor := range outlinks {
		page.Outlinks().Put(u, anchor)
	}
	return ds.Put(cmd.Context(), key, page.Record())
}

func newDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <key>",
		Short: "Deletes the page stored under key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ds, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer ds.Close()
			return ds.Delete(cmd.Context(), args[0])
		},
	}
}

func newQueryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "query",
		Short: "Prints the pages in a key range, both ends inclusive",
		Args:  cobra.NoArgs,
		RunE:  query,
	}
	cmd.Flags().String("start", "", "First key (default: from the beginning)")
	cmd.Flags().String("end", "", "Last key (default: to the end)")
	cmd.Flags().Int("limit", 0, "Maximum number of pages")
	return cmd
}

func query(cmd *cobra.Command, args []string) error {
	ds, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer ds.Close()

	q := ds.NewQuery()
	if cmd.Flags().Changed("start") {
		q.SetStartKey(must(cmd.Flags().GetString("start")))
	}
	if cmd.Flags().Changed("end") {
		q.SetEndKey(must(cmd.Flags().GetString("end")))
	}
	q.SetLimit(must(cmd.Flags().GetInt("limit")))

	res, err := ds.Execute(cmd.Context(), q)
	if err != nil {
		return err
	}
	defer res.Close()
	for key, rec := range res.All() {
		if err := printRow(cmd.OutOrStdout(), key, rec); err != nil {
			return err
		}
	}
	return res.Err()
}

type row struct {
	Key     string       `json:"key"`
	Deleted bool         `json:"deleted,omitempty"`
	Page    *gora.Record `json:"page,omitempty"`
}

func printRow(w io.Writer, key string, rec *gora.Record) error {
	r := row{Key: key}
	if rec.IsTombstone() {
		r.Deleted = true
	} else {
		r.Page = rec
	}
	return json.NewEncoder(w).Encode(r)
}

func must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}
