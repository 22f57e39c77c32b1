package dsn

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/GoFMG-Admin/GoFMG-Admin/internal/config"
)

func TestCreate(t *testing.T) {
	base := config.DB{Host: "db", Port: 3306, User: "fmg", Password: "secret", Name: "fmgadmin", Extras: "parseTime=true"}

	tests := []struct {
		name   string
		engine string
		want   string
	}{
		{name: "mysql", engine: config.DBEngineMySQL, want: "fmg:secret@tcp(db:3306)/fmgadmin?parseTime=true"},
		{name: "postgres", engine: config.DBEnginePostgres, want: "host=db port=3306 user=fmg password=secret dbname=fmgadmin parseTime=true"},
		{name: "sqlite", engine: config.DBEngineSQLite, want: "fmgadmin"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base
			cfg.Engine = tt.engine
			assert.Equal(t, tt.want, Create(&cfg))
		})
	}
}

func TestURI(t *testing.T) {
	cfg := config.DB{Host: "pg", Port: 5432, User: "fmg", Password: "p@ss", Name: "fmgadmin", Extras: "sslmode=disable"}
	assert.Equal(t, "postgres://fmg:p%40ss@pg:5432/fmgadmin?sslmode=disable", URI(&cfg))
}
