// Package sqlrepo implements partnercache.Repository against Postgres using
// jackc/pgx/v5 and its pgxpool connection pool — a thin, non-ORM relational
// repository, the idiomatic Go analogue of the source system's Spring Data
// JPA PartnerConfigRepository over a partner_configurations table.
package sqlrepo
