package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"prism/internal/ipc"
	"prism/internal/libinfo"
	"prism/internal/mirror"
)

func newLibrariesCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "libraries",
		Short: "List media server libraries and their mirror status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(client *ipc.Client, store *mirror.Store) error {
				var records []ipc.LibraryRecord
				if client != nil {
					resp, err := client.LibraryList()
					if err != nil {
						return err
					}
					records = resp.Libraries
				} else {
					host, err := ctx.hostService()
					if err != nil {
						return err
					}
					libraries, err := libinfo.NewProjector(store, host).List(cmd.Context())
					if err != nil {
						return err
					}
					records = libraryRecords(libraries)
				}

				if len(records) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No libraries found")
					return nil
				}
				table := renderTable(
					[]string{"Name", "Type", "Language", "Locations", "Mirror"},
					buildLibraryListRows(records),
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft},
				)
				fmt.Fprint(cmd.OutOrStdout(), table)
				return nil
			})
		},
	}
}

func libraryRecords(libraries []libinfo.Library) []ipc.LibraryRecord {
	records := make([]ipc.LibraryRecord, 0, len(libraries))
	for _, lib := range libraries {
		records = append(records, ipc.LibraryRecord{
			ID:                        lib.ID,
			Name:                      lib.Name,
			CollectionType:            lib.CollectionType,
			Locations:                 lib.Locations,
			PreferredMetadataLanguage: lib.PreferredMetadataLanguage,
			MetadataCountryCode:       lib.MetadataCountryCode,
			IsMirror:                  lib.IsMirror,
			MirrorID:                  lib.MirrorID,
			AlternativeID:             lib.AlternativeID,
			AlternativeName:           lib.AlternativeName,
		})
	}
	return records
}

func buildLibraryListRows(records []ipc.LibraryRecord) [][]string {
	rows := make([][]string, 0, len(records))
	for _, record := range records {
		mirrorCell := "-"
		if record.IsMirror {
			mirrorCell = record.AlternativeName
			if mirrorCell == "" {
				mirrorCell = shortID(record.MirrorID)
			}
		}
		rows = append(rows, []string{
			record.Name,
			record.CollectionType,
			metadataLanguageCell(record),
			strings.Join(record.Locations, "\n"),
			mirrorCell,
		})
	}
	return rows
}

func metadataLanguageCell(record ipc.LibraryRecord) string {
	lang := strings.TrimSpace(record.PreferredMetadataLanguage)
	if lang == "" {
		return "-"
	}
	if country := strings.TrimSpace(record.MetadataCountryCode); country != "" {
		return fmt.Sprintf("%s-%s", lang, country)
	}
	return lang
}
