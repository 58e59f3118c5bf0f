package repository

import (
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/surrealdb/surrealdb.go/pkg/models"

	"github.com/forgo/mediacms/api/internal/database"
	"github.com/forgo/mediacms/api/internal/model"
)

// isUniqueConstraintError checks if an error is a unique index violation.
// SurrealDB reports these as "Database index `x` already contains ...".
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return strings.Contains(errStr, "already contains") ||
		strings.Contains(errStr, "unique") ||
		strings.Contains(errStr, "duplicate") ||
		strings.Contains(errStr, "already exists")
}

// convertSurrealID converts a SurrealDB ID (which may be a complex object) to a string
func convertSurrealID(id interface{}) string {
	switch v := id.(type) {
	case nil:
		return ""
	case string:
		return v
	case models.RecordID:
		return fmt.Sprintf("%s:%v", v.Table, v.ID)
	case *models.RecordID:
		if v == nil {
			return ""
		}
		return fmt.Sprintf("%s:%v", v.Table, v.ID)
	case map[string]interface{}:
		tb := ""
		for _, key := range []string{"tb", "TB", "Table"} {
			if t, ok := v[key].(string); ok {
				tb = t
				break
			}
		}
		idPart := ""
		if idVal, ok := v["id"]; ok {
			idPart = extractIDValue(idVal)
		} else if idVal, ok := v["ID"]; ok {
			idPart = extractIDValue(idVal)
		}
		if tb != "" && idPart != "" {
			return tb + ":" + idPart
		}
		if idPart != "" {
			return idPart
		}
	}

	// Fall back to the driver's JSON form
	if data, err := json.Marshal(id); err == nil {
		var recordID models.RecordID
		if err := json.Unmarshal(data, &recordID); err == nil && recordID.Table != "" {
			return fmt.Sprintf("%s:%v", recordID.Table, recordID.ID)
		}
	}
	return fmt.Sprintf("%v", id)
}

// extractIDValue extracts the ID value which may be nested
func extractIDValue(val interface{}) string {
	if str, ok := val.(string); ok {
		return str
	}
	if m, ok := val.(map[string]interface{}); ok {
		if s, ok := m["String"].(string); ok {
			return s
		}
		if s, ok := m["string"].(string); ok {
			return s
		}
	}
	return fmt.Sprintf("%v", val)
}

// parseTime parses time from the formats the driver may return
func parseTime(v interface{}) time.Time {
	switch t := v.(type) {
	case time.Time:
		return t
	case string:
		if parsed, err := time.Parse(time.RFC3339Nano, t); err == nil {
			return parsed
		}
	case models.CustomDateTime:
		return t.Time
	case *models.CustomDateTime:
		if t != nil {
			return t.Time
		}
	}
	return time.Time{}
}

// statementRows returns the rows of the first statement of a Query result
func statementRows(results []interface{}) []map[string]interface{} {
	rows := database.StatementRows(results, 0)
	out := make([]map[string]interface{}, 0, len(rows))
	for _, row := range rows {
		if m, ok := row.(map[string]interface{}); ok {
			out = append(out, m)
		}
	}
	return out
}

// recordMap asserts a QueryOne result as a record
func recordMap(result interface{}) (map[string]interface{}, error) {
	if result == nil {
		return nil, database.ErrNotFound
	}
	data, ok := result.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("unexpected result format %T", result)
	}
	return data, nil
}

// extractCount reads the value of a `SELECT count() ... GROUP ALL` statement
func extractCount(results []interface{}) int {
	rows := statementRows(results)
	if len(rows) == 0 {
		return 0
	}
	return getInt(rows[0], "count")
}

// getString extracts a string value from a map
func getString(m map[string]interface{}, key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}

// getStringPtr extracts an optional string value from a map
func getStringPtr(m map[string]interface{}, key string) *string {
	if v, ok := m[key].(string); ok && v != "" {
		return &v
	}
	return nil
}

// getInt extracts an int value from a map
func getInt(m map[string]interface{}, key string) int {
	switch v := m[key].(type) {
	case float64:
		return int(v)
	case float32:
		return int(v)
	case int:
		return v
	case int64:
		return int(v)
	case uint64:
		return int(v)
	}
	return 0
}

// getBool extracts a bool value from a map
func getBool(m map[string]interface{}, key string) bool {
	if v, ok := m[key].(bool); ok {
		return v
	}
	return false
}

// getTime extracts a time value from a map
func getTime(m map[string]interface{}, key string) time.Time {
	return parseTime(m[key])
}

// getRecordID extracts a record link as "table:id"
func getRecordID(m map[string]interface{}, key string) string {
	return convertSurrealID(m[key])
}

// getStringSlice extracts a string slice from a map
func getStringSlice(m map[string]interface{}, key string) []string {
	v, ok := m[key].([]interface{})
	if !ok {
		return []string{}
	}
	result := make([]string, 0, len(v))
	for _, item := range v {
		if s, ok := item.(string); ok {
			result = append(result, s)
		}
	}
	return result
}

// getResources decodes the resources array of a technique record
func getResources(m map[string]interface{}, key string) []model.Resource {
	items, ok := m[key].([]interface{})
	if !ok {
		return []model.Resource{}
	}
	resources := make([]model.Resource, 0, len(items))
	for _, item := range items {
		obj, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		resources = append(resources, model.Resource{
			URL:       getString(obj, "url"),
			Source:    getString(obj, "source"),
			SeedTitle: getString(obj, "seed_title"),
		})
	}
	return resources
}

// resourcesValue converts resources into the plain maps stored in SurrealDB
func resourcesValue(resources []model.Resource) []map[string]interface{} {
	out := make([]map[string]interface{}, 0, len(resources))
	for _, r := range resources {
		obj := map[string]interface{}{"url": r.URL}
		if r.Source != "" {
			obj["source"] = r.Source
		}
		if r.SeedTitle != "" {
			obj["seed_title"] = r.SeedTitle
		}
		out = append(out, obj)
	}
	return out
}

// clampPage applies list defaults and bounds
func clampPage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = model.DefaultPageSize
	}
	if limit > model.MaxPageSize {
		limit = model.MaxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
