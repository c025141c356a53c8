package services

// SQL templates for the populate and status steps. Table identifiers are
// substituted with fmt.Sprintf after sanitizing; values are always bound.

const (
	// queryPendingKeys lists file_list keys with no session row.
	// %[1]s: file_list, %[2]s: session
	queryPendingKeys = `
		SELECT f.experiment_file
		FROM %[1]s f
		WHERE NOT EXISTS (
			SELECT 1 FROM %[2]s s WHERE s.experiment_file = f.experiment_file
		)
		ORDER BY f.experiment_file
	`

	// queryKeyPopulated reports whether any session row references the key.
	// %s: session
	queryKeyPopulated = `SELECT EXISTS (SELECT 1 FROM %s WHERE experiment_file = $1)`

	// queryFileProgress returns each listed file with its stored checksum and
	// the number of sessions populated from it.
	// %[1]s: file_list, %[2]s: session
	queryFileProgress = `
		SELECT f.experiment_file, f.checksum, count(s.experiment_file)
		FROM %[1]s f
		LEFT JOIN %[2]s s ON s.experiment_file = f.experiment_file
		GROUP BY f.experiment_file, f.checksum
		ORDER BY f.experiment_file
	`
)
