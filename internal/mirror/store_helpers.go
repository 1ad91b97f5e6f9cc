package mirror

import (
	"database/sql"
	"errors"
	"time"
)

const mirrorColumns = "id, alternative_id, source_library_id, source_library_name, target_path, target_library_id, target_library_name, collection_type, status, last_error, last_synced_at, last_sync_file_count, progress_percent, progress_message, created_at, updated_at"

const alternativeColumns = "id, name, language_tag, created_at, updated_at"

func scanMirror(scanner interface{ Scan(dest ...any) error }) (*Mirror, error) {
	var (
		id             string
		alternativeID  string
		sourceID       string
		sourceName     sql.NullString
		targetPath     string
		targetID       sql.NullString
		targetName     sql.NullString
		collectionType sql.NullString
		statusStr      string
		lastError      sql.NullString
		lastSyncedRaw  sql.NullString
		fileCount      sql.NullInt64
		progress       sql.NullFloat64
		progressMsg    sql.NullString
		createdRaw     sql.NullString
		updatedRaw     sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&alternativeID,
		&sourceID,
		&sourceName,
		&targetPath,
		&targetID,
		&targetName,
		&collectionType,
		&statusStr,
		&lastError,
		&lastSyncedRaw,
		&fileCount,
		&progress,
		&progressMsg,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}

	m := &Mirror{
		ID:                id,
		AlternativeID:     alternativeID,
		SourceLibraryID:   sourceID,
		SourceLibraryName: sourceName.String,
		TargetPath:        targetPath,
		TargetLibraryID:   targetID.String,
		TargetLibraryName: targetName.String,
		CollectionType:    collectionType.String,
		Status:            Status(statusStr),
		LastError:         lastError.String,
		ProgressPercent:   progress.Float64,
		ProgressMessage:   progressMsg.String,
	}
	if fileCount.Valid {
		count := int(fileCount.Int64)
		m.LastSyncFileCount = &count
	}
	if lastSyncedRaw.Valid {
		if synced, err := parseTimeString(lastSyncedRaw.String); err == nil {
			m.LastSyncedAt = &synced
		}
	}
	if created, err := parseTimeString(createdRaw.String); err == nil {
		m.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		m.UpdatedAt = updated
	}
	return m, nil
}

func scanAlternative(scanner interface{ Scan(dest ...any) error }) (*Alternative, error) {
	var (
		id          string
		name        string
		languageTag string
		createdRaw  sql.NullString
		updatedRaw  sql.NullString
	)

	if err := scanner.Scan(&id, &name, &languageTag, &createdRaw, &updatedRaw); err != nil {
		return nil, err
	}

	alt := &Alternative{
		ID:          id,
		Name:        name,
		LanguageTag: languageTag,
	}
	if created, err := parseTimeString(createdRaw.String); err == nil {
		alt.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		alt.UpdatedAt = updated
	}
	return alt, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func nullableTime(value *time.Time) any {
	if value == nil {
		return nil
	}
	v := value.UTC().Format(time.RFC3339Nano)
	return v
}

func nullableInt(value *int) any {
	if value == nil {
		return nil
	}
	return *value
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}

func nowTimestamp() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}
