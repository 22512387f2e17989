package dialects

var PostgresData = DialectData{
	Dialect:         Postgres,
	IdentOpen:       `"`,
	IdentClose:      `"`,
	StringEscape:    EscapeDoubledQuote,
	BoolLiterals:    [2]string{"false", "true"},
	Binary:          BinaryHexBytea,
	Placeholder:     PlaceholderDollar,
	NativeArrays:    true,
	JSONTypes:       []string{"json", "jsonb"},
	DefaultSchema:   "public",
	TimestampLayout: "2006-01-02 15:04:05.999999Z07:00",
	Terminator:      ";",
	ColumnTypes: map[string]string{
		"integer":   "integer",
		"bigint":    "bigint",
		"float":     "double precision",
		"decimal":   "numeric",
		"boolean":   "boolean",
		"text":      "text",
		"varchar":   "varchar",
		"json":      "jsonb",
		"uuid":      "uuid",
		"date":      "date",
		"timestamp": "timestamptz",
		"blob":      "bytea",
	},
}

var RedshiftData = DialectData{
	Dialect:         Redshift,
	IdentOpen:       `"`,
	IdentClose:      `"`,
	StringEscape:    EscapeDoubledQuote,
	BoolLiterals:    [2]string{"false", "true"},
	Binary:          BinaryHexBytea,
	Placeholder:     PlaceholderDollar,
	JSONTypes:       []string{"super"},
	DefaultSchema:   "public",
	TimestampLayout: "2006-01-02 15:04:05.999999Z07:00",
	Terminator:      ";",
	ColumnTypes: map[string]string{
		"integer":   "integer",
		"bigint":    "bigint",
		"float":     "double precision",
		"decimal":   "decimal",
		"boolean":   "boolean",
		"text":      "varchar(max)",
		"varchar":   "varchar",
		"json":      "super",
		"uuid":      "char(36)",
		"date":      "date",
		"timestamp": "timestamptz",
		"blob":      "varbyte",
	},
}

var MysqlData = DialectData{
	Dialect:         MySQL,
	IdentOpen:       "`",
	IdentClose:      "`",
	StringEscape:    EscapeBackslash,
	BoolLiterals:    [2]string{"false", "true"},
	Binary:          BinaryXLiteral,
	Placeholder:     PlaceholderQuestion,
	JSONTypes:       []string{"json"},
	TimestampLayout: "2006-01-02 15:04:05.999999",
	Terminator:      ";",
	ColumnTypes: map[string]string{
		"integer":   "int",
		"bigint":    "bigint",
		"float":     "double",
		"decimal":   "decimal",
		"boolean":   "tinyint(1)",
		"text":      "text",
		"varchar":   "varchar(255)",
		"json":      "json",
		"uuid":      "char(36)",
		"date":      "date",
		"timestamp": "datetime(6)",
		"blob":      "longblob",
	},
}

var SqlServerData = DialectData{
	Dialect:         SQLServer,
	IdentOpen:       "[",
	IdentClose:      "]",
	StringEscape:    EscapeDoubledQuote,
	UnicodePrefix:   "N",
	BoolLiterals:    [2]string{"0", "1"},
	Binary:          Binary0x,
	Placeholder:     PlaceholderAtP,
	DefaultSchema:   "dbo",
	TimestampLayout: "2006-01-02 15:04:05.9999999Z07:00",
	Terminator:      ";",
	ColumnTypes: map[string]string{
		"integer":   "int",
		"bigint":    "bigint",
		"float":     "float",
		"decimal":   "decimal",
		"boolean":   "bit",
		"text":      "nvarchar(max)",
		"varchar":   "nvarchar(255)",
		"json":      "nvarchar(max)",
		"uuid":      "uniqueidentifier",
		"date":      "date",
		"timestamp": "datetimeoffset",
		"blob":      "varbinary(max)",
	},
}

var SqliteData = DialectData{
	Dialect:         SQLite,
	IdentOpen:       `"`,
	IdentClose:      `"`,
	StringEscape:    EscapeDoubledQuote,
	BoolLiterals:    [2]string{"0", "1"},
	Binary:          BinaryXLiteral,
	Placeholder:     PlaceholderQuestion,
	JSONTypes:       []string{"json"},
	TimestampLayout: "2006-01-02 15:04:05.999999999-07:00",
	Terminator:      ";",
	ColumnTypes: map[string]string{
		"integer":   "integer",
		"bigint":    "integer",
		"float":     "real",
		"decimal":   "numeric",
		"boolean":   "boolean",
		"text":      "text",
		"varchar":   "varchar",
		"json":      "json",
		"uuid":      "text",
		"date":      "date",
		"timestamp": "datetime",
		"blob":      "blob",
	},
}

var BigQueryData = DialectData{
	Dialect:         BigQuery,
	IdentOpen:       "`",
	IdentClose:      "`",
	StringEscape:    EscapeBackslash,
	BoolLiterals:    [2]string{"FALSE", "TRUE"},
	Binary:          BinaryFromBase64,
	Placeholder:     PlaceholderQuestion,
	NativeArrays:    false,
	JSONTypes:       []string{"json"},
	TimestampLayout: "2006-01-02 15:04:05.999999Z07:00",
	Terminator:      ";",
	ColumnTypes: map[string]string{
		"integer":   "INT64",
		"bigint":    "INT64",
		"float":     "FLOAT64",
		"decimal":   "NUMERIC",
		"boolean":   "BOOL",
		"text":      "STRING",
		"varchar":   "STRING",
		"json":      "JSON",
		"uuid":      "STRING",
		"date":      "DATE",
		"timestamp": "TIMESTAMP",
		"blob":      "BYTES",
	},
}
