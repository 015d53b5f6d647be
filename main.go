package main

import (
	"fmt"
	"os"

	"go-pagedb/config"
	"go-pagedb/pkg/column"
	"go-pagedb/pkg/customerrors"
	"go-pagedb/pkg/database"
	"go-pagedb/pkg/types"
	"go-pagedb/util/logger"

	"github.com/pkg/errors"
)

func main() {
	configs, err := config.FromEnv()
	if err != nil {
		fatal(err)
	}
	if err := logger.SetLevel(configs.LogConfig.Level); err != nil {
		fatal(err)
	}

	catalog, err := database.NewDirCatalog(configs.StorageConfig.Dir, configs.StorageConfig.Mmap)
	if err != nil {
		fatal(err)
	}

	db, err := database.New(catalog, configs.StorageConfig.TableOptions())
	if err != nil {
		fatal(err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			fmt.Println("error on gracefully stopping:", err)
		}
	}()

	schema := column.Schema{
		column.New("id", types.KindInteger),
		column.New("greeting", types.KindText),
	}
	err = db.CreateTable("greetings", schema, "id")
	if err != nil && !errors.Is(err, customerrors.ErrTableExists) {
		fatal(err)
	}

	err = db.InsertValues("greetings", 0, "Hello World")
	if err != nil && !errors.Is(err, customerrors.ErrKeyExists) {
		fatal(err)
	}

	row, err := db.ReadValues("greetings", 0)
	if err != nil {
		fatal(err)
	}
	logger.L.Infof("greetings[0] => %v", row)
}

func fatal(val interface{}) {
	logger.L.Error(val)
	os.Exit(1)
}
