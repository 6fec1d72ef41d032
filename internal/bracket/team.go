package bracket

import "github.com/google/uuid"

type Team struct {
	ID        uuid.UUID `db:"id"`
	Name      string    `db:"name"`
	ShortName string    `db:"short_name"`
	Mascot    string    `db:"mascot"`
}
