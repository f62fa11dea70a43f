package store

// schema0114 is the fixed seven-table schema (plus the backup's own
// acckeys housekeeping table) for dump schemaversion "0114".
var schema0114 = []string{
	`CREATE TABLE attrib (id INTEGER PRIMARY KEY NOT NULL, name TEXT, modify_time INTEGER, textval TEXT, binval TEXT, strval TEXT, intval INTEGER, floatval TEXT, is_attr_of INTEGER, has_attype INTEGER);`,
	`CREATE TABLE bind (has_asm INTEGER, has_bound_bs INTEGER, has_child INTEGER, has_parent INTEGER, create_time INTEGER, sync_time INTEGER, wa_time INTEGER);`,
	`CREATE TABLE bsite (id INTEGER PRIMARY KEY NOT NULL, name TEXT, info TEXT, ui_info TEXT, is_bsite_of INTEGER, has_bstype INTEGER, has_next_bs INTEGER);`,
	`CREATE TABLE compver (id INTEGER PRIMARY KEY NOT NULL, status TEXT, create_time INTEGER, modify_time INTEGER, owner TEXT, is_asm INTEGER, is_model INTEGER, subsystem TEXT, cvtype TEXT, name TEXT, version TEXT, is_product INTEGER, ui_info INTEGER, release INTEGER, has_cvtype INTEGER, has_model INTEGER, has_super_type INTEGER, acc_key_0 INTEGER, acc_key_1 INTEGER, acc_key_2 INTEGER, acc_key_3 INTEGER, acc_key_4 INTEGER, acc_key_5 INTEGER, acc_key_6 INTEGER, acc_key_7 INTEGER, acc_key_8 INTEGER, acc_key_9 INTEGER, acc_key_10 INTEGER, acc_key_11 INTEGER, acc_key_12 INTEGER, acc_key_13 INTEGER, acc_key_14 INTEGER, acc_key_15 INTEGER, acc_key_16 INTEGER, acc_key_17 INTEGER, acc_key_18 INTEGER, acc_key_19 INTEGER);`,
	`CREATE TABLE control (id INTEGER PRIMARY KEY NOT NULL, nextid INTEGER, info TEXT);`,
	`CREATE TABLE relate (name TEXT, from_cv INTEGER, to_cv INTEGER, create_time INTEGER);`,
	`CREATE TABLE release (id INTEGER PRIMARY KEY NOT NULL, name TEXT);`,
	`CREATE TABLE acckeys (id INTEGER PRIMARY KEY NOT NULL, attr_name TEXT, attr_value TEXT);`,
	`CREATE INDEX idx_compver_fpn ON compver (name, version, cvtype, subsystem);`,
	`CREATE INDEX idx_attrib_owner ON attrib (is_attr_of, name);`,
	`CREATE INDEX idx_relate_from ON relate (from_cv, name);`,
	`CREATE INDEX idx_relate_to ON relate (to_cv, name);`,
	`CREATE INDEX idx_bind_asm_parent ON bind (has_asm, has_parent);`,
	`CREATE INDEX idx_bsite_of ON bsite (is_bsite_of);`,
}

// schemaStatements returns the DDL for a dump's declared schemaversion, or
// an error for an unsupported one: an unrecognised schema version is a
// fatal parse error.
func schemaStatements(schemaVersion string) ([]string, error) {
	switch schemaVersion {
	case "0114":
		return schema0114, nil
	default:
		return nil, unsupportedSchemaError{schemaVersion}
	}
}

type unsupportedSchemaError struct {
	version string
}

func (e unsupportedSchemaError) Error() string {
	return "store: unsupported schemaversion " + e.version
}

// tableColumns lists the columns, in insertion order, for each table the
// schema defines. The dump parser emits records positionally; insertion
// must bind them in exactly this order.
var tableColumns = map[string][]string{
	"attrib":  {"id", "name", "modify_time", "textval", "binval", "strval", "intval", "floatval", "is_attr_of", "has_attype"},
	"bind":    {"has_asm", "has_bound_bs", "has_child", "has_parent", "create_time", "sync_time", "wa_time"},
	"bsite":   {"id", "name", "info", "ui_info", "is_bsite_of", "has_bstype", "has_next_bs"},
	"compver": {"id", "status", "create_time", "modify_time", "owner", "is_asm", "is_model", "subsystem", "cvtype", "name", "version", "is_product", "ui_info", "release", "has_cvtype", "has_model", "has_super_type", "acc_key_0", "acc_key_1", "acc_key_2", "acc_key_3", "acc_key_4", "acc_key_5", "acc_key_6", "acc_key_7", "acc_key_8", "acc_key_9", "acc_key_10", "acc_key_11", "acc_key_12", "acc_key_13", "acc_key_14", "acc_key_15", "acc_key_16", "acc_key_17", "acc_key_18", "acc_key_19"},
	"control": {"id", "nextid", "info"},
	"relate":  {"name", "from_cv", "to_cv", "create_time"},
	"release": {"id", "name"},
	"acckeys": {"id", "attr_name", "attr_value"},
}
