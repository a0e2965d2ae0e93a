package server

import (
	"fmt"
	"strconv"

	"github.com/mcpgopher/runtime/mcp"
)

// defaultPageSize matches the original server's page size for list
// operations (resources, resource templates, prompts, tools).
const defaultPageSize = 50

// decodeCursor parses a pagination cursor (a decimal-string-encoded offset)
// back into an integer offset. An empty cursor means "start from zero".
func decodeCursor(cursor mcp.Cursor) (int, error) {
	if cursor == "" {
		return 0, nil
	}
	offset, err := strconv.Atoi(string(cursor))
	if err != nil || offset < 0 {
		return 0, fmt.Errorf("invalid cursor: %q", cursor)
	}
	return offset, nil
}

// paginate slices items[offset:offset+pageSize] and returns the next
// cursor, which is empty once there is no more data.
func paginate[T any](items []T, offset, pageSize int) (page []T, next mcp.Cursor) {
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	if offset >= len(items) {
		return nil, ""
	}
	end := offset + pageSize
	if end >= len(items) {
		return items[offset:], ""
	}
	return items[offset:end], mcp.Cursor(strconv.Itoa(end))
}
