package store

import sq "github.com/Masterminds/squirrel"

const schemaName = "studybridge"

func psql() sq.StatementBuilderType {
	return sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
}
