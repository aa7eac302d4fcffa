package database

import (
	"fmt"
	"strings"

	"chatapp-client/internal/entities"
)

type columnType int

const (
	colInt columnType = iota
	colText
	colBool
	colTime
)

type column struct {
	name string
	typ  columnType
}

type table struct {
	name    string
	columns []column
	unique  [][]string
	indexes [][]string
}

var common = []column{
	{entities.FieldID, colInt},
	{entities.FieldCreatedDate, colTime},
}

var kindOrder = []entities.Kind{
	entities.KindUser,
	entities.KindServer,
	entities.KindChannel,
	entities.KindServerMember,
	entities.KindMessage,
	entities.KindDirectMessage,
}

var tables = map[entities.Kind]table{
	entities.KindUser: {
		name: "users",
		columns: append([]column{
			{"username", colText},
			{"email", colText},
			{"display_name", colText},
			{"avatar_url", colText},
			{"status", colText},
			{"bio", colText},
			{"banner_color", colText},
			{"password_hash", colText},
		}, common...),
	},
	entities.KindServer: {
		name: "servers",
		columns: append([]column{
			{"name", colText},
			{"description", colText},
			{"icon_url", colText},
			{"owner_id", colInt},
			{"is_public", colBool},
		}, common...),
	},
	entities.KindChannel: {
		name: "channels",
		columns: append([]column{
			{entities.FieldServerID, colInt},
			{"name", colText},
			{"description", colText},
			{"type", colText},
			{entities.FieldPosition, colInt},
		}, common...),
		indexes: [][]string{{entities.FieldServerID, entities.FieldPosition}},
	},
	entities.KindServerMember: {
		name: "server_members",
		columns: append([]column{
			{entities.FieldServerID, colInt},
			{entities.FieldUserID, colInt},
			{"username", colText},
			{"role", colText},
			{"nickname", colText},
		}, common...),
		unique:  [][]string{{entities.FieldServerID, entities.FieldUserID}},
		indexes: [][]string{{entities.FieldUserID}},
	},
	entities.KindMessage: {
		name: "messages",
		columns: append([]column{
			{entities.FieldChannelID, colInt},
			{entities.FieldUserID, colInt},
			{"username", colText},
			{"content", colText},
		}, common...),
		indexes: [][]string{{entities.FieldChannelID, entities.FieldCreatedDate}},
	},
	entities.KindDirectMessage: {
		name: "direct_messages",
		columns: append([]column{
			{entities.FieldSenderID, colInt},
			{entities.FieldReceiverID, colInt},
			{"sender_username", colText},
			{"content", colText},
		}, common...),
		indexes: [][]string{{entities.FieldSenderID, entities.FieldReceiverID, entities.FieldCreatedDate}},
	},
}

func (t table) column(name string) (column, bool) {
	for _, c := range t.columns {
		if c.name == name {
			return c, true
		}
	}
	return column{}, false
}

func (t table) columnNames() []string {
	names := make([]string, len(t.columns))
	for i, c := range t.columns {
		names[i] = c.name
	}
	return names
}

func (c column) sqlType() string {
	switch c.typ {
	case colText:
		return "TEXT"
	case colBool:
		return "BOOLEAN NOT NULL DEFAULT FALSE"
	case colTime:
		return "BIGINT NOT NULL"
	default:
		if c.name == entities.FieldID {
			return "BIGINT PRIMARY KEY"
		}
		return "BIGINT NOT NULL DEFAULT 0"
	}
}

func (t table) ddl(dialect Dialect) []string {
	defs := make([]string, 0, len(t.columns)+len(t.unique)+len(t.indexes))
	for _, c := range t.columns {
		defs = append(defs, fmt.Sprintf("%s %s", c.name, c.sqlType()))
	}

	for _, cols := range t.unique {
		defs = append(defs, fmt.Sprintf("UNIQUE (%s)", strings.Join(cols, ", ")))
	}

	var statements []string
	if dialect == MySQL {
		for _, cols := range t.indexes {
			defs = append(defs, fmt.Sprintf("KEY %s (%s)", indexName(t.name, cols), strings.Join(cols, ", ")))
		}
	} else {
		for _, cols := range t.indexes {
			statements = append(statements, fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s ON %s (%s)", indexName(t.name, cols), t.name, strings.Join(cols, ", ")))
		}
	}

	create := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n\t%s\n)", t.name, strings.Join(defs, ",\n\t"))
	return append([]string{create}, statements...)
}

func indexName(tableName string, cols []string) string {
	return fmt.Sprintf("idx_%s_%s", tableName, strings.Join(cols, "_"))
}
