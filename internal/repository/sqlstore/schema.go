package sqlstore

import (
	"context"
	"fmt"
)

// schema creates the three application tables. Foreign keys use the
// default RESTRICT action; cascades are performed explicitly by the store.
var schema = []string{
	"CREATE TABLE IF NOT EXISTS `user` (" +
		"user_id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY," +
		"username VARCHAR(50) NOT NULL" +
		") ENGINE=InnoDB DEFAULT CHARSET=utf8mb4",
	"CREATE TABLE IF NOT EXISTS movie (" +
		"movie_id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY," +
		"title VARCHAR(100) NOT NULL," +
		"year CHAR(4) NOT NULL," +
		"rating VARCHAR(10) NOT NULL DEFAULT 'N/A'," +
		"user_id BIGINT UNSIGNED NOT NULL," +
		"imdbID VARCHAR(30) NULL," +
		"poster TEXT NOT NULL," +
		"UNIQUE KEY uq_movie_imdb (imdbID)," +
		"KEY idx_movie_user (user_id)," +
		"CONSTRAINT fk_movie_user FOREIGN KEY (user_id) REFERENCES `user` (user_id)" +
		") ENGINE=InnoDB DEFAULT CHARSET=utf8mb4",
	"CREATE TABLE IF NOT EXISTS review (" +
		"review_id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY," +
		"user_id BIGINT UNSIGNED NOT NULL," +
		"movie_id BIGINT UNSIGNED NOT NULL," +
		"review_text VARCHAR(500) NOT NULL," +
		"rating INT NOT NULL," +
		"KEY idx_review_movie (movie_id)," +
		"KEY idx_review_user (user_id)," +
		"CONSTRAINT fk_review_user FOREIGN KEY (user_id) REFERENCES `user` (user_id)," +
		"CONSTRAINT fk_review_movie FOREIGN KEY (movie_id) REFERENCES movie (movie_id)" +
		") ENGINE=InnoDB DEFAULT CHARSET=utf8mb4",
}

// Migrate creates missing tables. It never alters or drops existing ones.
func (s *Store) Migrate(ctx context.Context) error {
	for i, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate step %d: %w", i+1, err)
		}
	}
	return nil
}
