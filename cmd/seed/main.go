package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"

	"tinta/internal/catalog"
	"tinta/internal/config"
	"tinta/internal/repository/postgres"
	"tinta/internal/service"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
)

func main() {
	dropTables := flag.Bool("drop-tables", false, "Drop all tables before creating the schema (fresh start)")
	schemaOnly := flag.Bool("schema-only", false, "Only set up schema, skip seeding the tag catalog")
	flag.Parse()

	_ = godotenv.Load()

	cfg := config.Load()

	// SAFETY: never drop tables in production
	if cfg.Environment == "prod" && *dropTables {
		log.Fatalf("BLOCKED: cannot run --drop-tables in production environment")
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	log.Printf("Preparing database (environment: %s, prefix: %s)", cfg.Environment, cfg.TablePrefix)

	ctx := context.Background()
	pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	tables := postgres.NewTableNames(cfg.TablePrefix)

	if *dropTables {
		log.Println("Dropping all tables...")
		if err := dropAllTables(ctx, pool, tables); err != nil {
			log.Fatalf("Failed to drop tables: %v", err)
		}
		log.Println("Tables dropped")
	}

	log.Println("Ensuring database schema is up to date...")
	if err := runSchema(ctx, pool, tables); err != nil {
		log.Fatalf("Failed to run schema: %v", err)
	}
	log.Println("Schema ready")

	if *schemaOnly {
		log.Println("Schema setup complete (schema-only mode)")
		return
	}

	// Seed the built-in tag catalog
	registry, err := catalog.NewRegistry()
	if err != nil {
		log.Fatalf("Failed to load tag catalog: %v", err)
	}
	repoConfig := &postgres.RepositoryConfig{Pool: pool, Tables: tables, Logger: logger}
	tagService := service.NewTagService(postgres.NewTagRepository(repoConfig), registry, logger)
	if err := tagService.SeedCatalog(ctx); err != nil {
		log.Fatalf("Failed to seed tag catalog: %v", err)
	}

	log.Println("Database ready")
}

func runSchema(ctx context.Context, pool *pgxpool.Pool, tables *postgres.TableNames) error {
	createUsers := `
		CREATE TABLE IF NOT EXISTS ` + tables.Users + ` (
			id TEXT PRIMARY KEY,
			nombre TEXT NOT NULL,
			correo TEXT NOT NULL,
			rol TEXT NOT NULL DEFAULT 'lector'
		)
	`
	if _, err := pool.Exec(ctx, createUsers); err != nil {
		return err
	}

	createTags := `
		CREATE TABLE IF NOT EXISTS ` + tables.Tags + ` (
			id TEXT PRIMARY KEY,
			nombre TEXT NOT NULL UNIQUE,
			descripcion TEXT NOT NULL DEFAULT ''
		)
	`
	if _, err := pool.Exec(ctx, createTags); err != nil {
		return err
	}

	createArticles := `
		CREATE TABLE IF NOT EXISTS ` + tables.Articles + ` (
			id TEXT PRIMARY KEY,
			titulo TEXT NOT NULL,
			descripcion TEXT NOT NULL DEFAULT '',
			contenido_markdown TEXT NOT NULL DEFAULT '',
			imagen_url TEXT NOT NULL DEFAULT '',
			tags TEXT[] NOT NULL DEFAULT '{}',
			autor_id TEXT NOT NULL REFERENCES ` + tables.Users + `(id),
			fecha_creacion TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			fecha_actualizacion TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			deleted_at TIMESTAMPTZ
		)
	`
	if _, err := pool.Exec(ctx, createArticles); err != nil {
		return err
	}

	createPending := `
		CREATE TABLE IF NOT EXISTS ` + tables.PendingArticles + ` (
			id TEXT PRIMARY KEY,
			titulo TEXT NOT NULL DEFAULT '',
			descripcion TEXT NOT NULL DEFAULT '',
			contenido_markdown TEXT NOT NULL DEFAULT '',
			imagen_url TEXT NOT NULL DEFAULT '',
			tags TEXT[] NOT NULL DEFAULT '{}',
			autor_id TEXT NOT NULL REFERENCES ` + tables.Users + `(id),
			tipo TEXT NOT NULL,
			id_articulo_original TEXT REFERENCES ` + tables.Articles + `(id),
			borrador BOOLEAN NOT NULL DEFAULT TRUE,
			fecha_creacion TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			fecha_envio TIMESTAMPTZ
		)
	`
	if _, err := pool.Exec(ctx, createPending); err != nil {
		return err
	}

	createRequests := `
		CREATE TABLE IF NOT EXISTS ` + tables.Requests + ` (
			id TEXT PRIMARY KEY,
			autor_id TEXT NOT NULL REFERENCES ` + tables.Users + `(id),
			tipo TEXT NOT NULL,
			id_articulo_pendiente TEXT REFERENCES ` + tables.PendingArticles + `(id) ON DELETE SET NULL,
			id_articulo_original TEXT REFERENCES ` + tables.Articles + `(id),
			id_articulo_nuevo TEXT,
			rol_actual TEXT,
			rol_deseado TEXT,
			estado TEXT NOT NULL DEFAULT 'pendiente',
			motivo_rechazo TEXT,
			fecha TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`
	if _, err := pool.Exec(ctx, createRequests); err != nil {
		return err
	}

	// One pending update per article, one pending role request per user
	indexes := []string{
		`CREATE INDEX IF NOT EXISTS ` + tables.Requests + `_estado_idx ON ` + tables.Requests + ` (estado)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS ` + tables.Requests + `_pending_update_idx
			ON ` + tables.Requests + ` (id_articulo_original)
			WHERE tipo = 'update' AND estado = 'pendiente'`,
		`CREATE UNIQUE INDEX IF NOT EXISTS ` + tables.Requests + `_pending_role_idx
			ON ` + tables.Requests + ` (autor_id)
			WHERE tipo = 'rol' AND estado = 'pendiente'`,
		`CREATE INDEX IF NOT EXISTS ` + tables.PendingArticles + `_autor_idx ON ` + tables.PendingArticles + ` (autor_id) WHERE borrador = TRUE`,
	}
	for _, idx := range indexes {
		if _, err := pool.Exec(ctx, idx); err != nil {
			return err
		}
	}

	return nil
}

func dropAllTables(ctx context.Context, pool *pgxpool.Pool, tables *postgres.TableNames) error {
	tableNames := []string{
		tables.Requests,
		tables.PendingArticles,
		tables.Articles,
		tables.Tags,
		tables.Users,
	}

	for _, table := range tableNames {
		dropSQL := "DROP TABLE IF EXISTS " + table + " CASCADE"
		if _, err := pool.Exec(ctx, dropSQL); err != nil {
			return err
		}
		log.Printf("  dropped %s", table)
	}

	return nil
}
