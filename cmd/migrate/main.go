package main

import (
	"log"

	"doc-intelligence-be/internal/config"
	"doc-intelligence-be/internal/model"
	"doc-intelligence-be/pkg/database"
)

func main() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	db, err := database.Open(database.Options{DSN: cfg.Database.Connection, Quiet: cfg.IsProduction()})
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}

	log.Println("Step 1: Enabling pgvector and migrating tables...")
	models := []interface{}{
		&model.Project{},
		&model.Document{},
		&model.Chunk{},
	}
	if err := database.Migrate(db, models...); err != nil {
		log.Fatalf("Error: Migration failed: %v", err)
	}

	log.Println("Step 2: Creating indexes...")
	indexSQL := []string{
		`CREATE INDEX IF NOT EXISTS idx_chunks_project_missing ON chunks (project_id) WHERE embedding IS NULL;`,
		`CREATE INDEX IF NOT EXISTS idx_chunks_embedding_vector ON chunks USING hnsw (embedding_vector vector_cosine_ops);`,
	}
	for _, sql := range indexSQL {
		if err := db.Exec(sql).Error; err != nil {
			log.Printf("Warn: Failed to create index: %v. Continuing...", err)
		}
	}

	log.Println("✅ Migration finished")
}
