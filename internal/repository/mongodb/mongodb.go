package mongodb

import (
	"strings"

	"go.mongodb.org/mongo-driver/mongo"

	"github.com/KatanaSword/chit-chat/internal/repository"
)

// uniqueFields are the identity fields backed by unique indexes; the index
// names follow the driver's <field>_1 convention.
var uniqueFields = []string{"username", "email", "phoneNumber"}

// mapWriteError translates driver duplicate-key failures into
// repository.DuplicateKeyError carrying the offending field name.
func mapWriteError(err error) error {
	if err == nil {
		return nil
	}
	if !mongo.IsDuplicateKeyError(err) {
		return err
	}

	message := err.Error()
	for _, field := range uniqueFields {
		if strings.Contains(message, "index: "+field+"_1") {
			return &repository.DuplicateKeyError{Field: field}
		}
	}

	return &repository.DuplicateKeyError{Field: "unknown"}
}
