// Package postgres implements the persistent stores over PostgreSQL.
//
// Foreign key delete policies are enforced procedurally on the store's
// write paths: restrict as a pre-delete existence check, cascade as an
// explicit child delete in the same transaction, and set-null as an
// explicit post-delete nulling step.
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/marshallshelly/storefront/pkg/runtime"
)

// migrations is the ordered schema history. Each step is applied at most
// once; the Migrator records applied versions in schema_migrations.
var migrations = []Migration{
	{
		Version: "001",
		Name:    "catalog",
		Statements: []string{
			`CREATE TABLE IF NOT EXISTS categorias_producto (
				id BIGSERIAL PRIMARY KEY,
				nombre_categoria VARCHAR(100) NOT NULL UNIQUE
			)`,
			`CREATE TABLE IF NOT EXISTS proveedor (
				id BIGSERIAL PRIMARY KEY,
				nombre VARCHAR(255) NOT NULL,
				telefono VARCHAR(20),
				direccion VARCHAR(255),
				email VARCHAR(254) UNIQUE
			)`,
			`CREATE TABLE IF NOT EXISTS producto (
				id BIGSERIAL PRIMARY KEY,
				nombre VARCHAR(255) NOT NULL,
				descripcion TEXT,
				precio NUMERIC(10,2) NOT NULL CHECK (precio > 0),
				stock INTEGER NOT NULL DEFAULT 0 CHECK (stock >= 0),
				id_categoria BIGINT REFERENCES categorias_producto(id),
				id_proveedor BIGINT REFERENCES proveedor(id)
			)`,
			`CREATE INDEX IF NOT EXISTS idx_producto_nombre ON producto (nombre)`,
		},
	},
	{
		Version: "002",
		Name:    "customers_and_carts",
		Statements: []string{
			`CREATE TABLE IF NOT EXISTS cliente (
				id BIGSERIAL PRIMARY KEY,
				nombre VARCHAR(100) NOT NULL,
				apellido VARCHAR(100) NOT NULL,
				telefono VARCHAR(20),
				direccion VARCHAR(255),
				email VARCHAR(254) UNIQUE
			)`,
			`CREATE TABLE IF NOT EXISTS carritos (
				id BIGSERIAL PRIMARY KEY,
				id_cliente BIGINT REFERENCES cliente(id),
				fecha_creacion TIMESTAMPTZ NOT NULL DEFAULT now(),
				fecha_ultima_actualizacion TIMESTAMPTZ NOT NULL DEFAULT now(),
				activo BOOLEAN NOT NULL DEFAULT true
			)`,
			`CREATE INDEX IF NOT EXISTS idx_carritos_cliente ON carritos (id_cliente)`,
			`CREATE TABLE IF NOT EXISTS items_carrito (
				id BIGSERIAL PRIMARY KEY,
				id_carrito BIGINT NOT NULL REFERENCES carritos(id),
				id_producto BIGINT NOT NULL REFERENCES producto(id),
				cantidad INTEGER NOT NULL CHECK (cantidad >= 1),
				precio_al_momento NUMERIC(10,2) NOT NULL,
				UNIQUE (id_carrito, id_producto)
			)`,
			`CREATE INDEX IF NOT EXISTS idx_items_carrito_carrito ON items_carrito (id_carrito)`,
			`CREATE INDEX IF NOT EXISTS idx_items_carrito_producto ON items_carrito (id_producto)`,
		},
	},
	{
		Version: "003",
		Name:    "orders",
		Statements: []string{
			`CREATE TABLE IF NOT EXISTS pedido (
				id BIGSERIAL PRIMARY KEY,
				id_cliente BIGINT NOT NULL REFERENCES cliente(id),
				fecha TIMESTAMPTZ NOT NULL DEFAULT now(),
				total NUMERIC(10,2) NOT NULL DEFAULT 0,
				estatus VARCHAR(50) NOT NULL DEFAULT 'pendiente'
					CHECK (estatus IN ('pendiente','procesando','enviado','completado','cancelado'))
			)`,
			`CREATE INDEX IF NOT EXISTS idx_pedido_cliente ON pedido (id_cliente)`,
			`CREATE INDEX IF NOT EXISTS idx_pedido_fecha ON pedido (fecha)`,
			`CREATE TABLE IF NOT EXISTS detalle_pedido (
				id BIGSERIAL PRIMARY KEY,
				id_pedido BIGINT NOT NULL REFERENCES pedido(id),
				id_producto BIGINT NOT NULL REFERENCES producto(id),
				cantidad INTEGER NOT NULL CHECK (cantidad >= 1),
				precio_unitario NUMERIC(10,2) NOT NULL,
				subtotal NUMERIC(10,2) NOT NULL
			)`,
			`CREATE INDEX IF NOT EXISTS idx_detalle_pedido_pedido ON detalle_pedido (id_pedido)`,
		},
	},
	{
		Version: "004",
		Name:    "sales",
		Statements: []string{
			`CREATE TABLE IF NOT EXISTS venta (
				id BIGSERIAL PRIMARY KEY,
				id_pedido BIGINT UNIQUE REFERENCES pedido(id),
				id_cliente BIGINT NOT NULL REFERENCES cliente(id),
				fecha_venta TIMESTAMPTZ NOT NULL DEFAULT now(),
				total_venta NUMERIC(10,2) NOT NULL,
				tipo_pago VARCHAR(50) NOT NULL
					CHECK (tipo_pago IN ('efectivo','tarjeta','transferencia','otro'))
			)`,
			`CREATE INDEX IF NOT EXISTS idx_venta_cliente ON venta (id_cliente)`,
			`CREATE INDEX IF NOT EXISTS idx_venta_fecha ON venta (fecha_venta)`,
			`CREATE TABLE IF NOT EXISTS detalle_venta (
				id BIGSERIAL PRIMARY KEY,
				id_venta BIGINT NOT NULL REFERENCES venta(id),
				id_producto BIGINT NOT NULL REFERENCES producto(id),
				cantidad INTEGER NOT NULL CHECK (cantidad >= 1),
				precio_unitario NUMERIC(10,2) NOT NULL,
				subtotal NUMERIC(10,2) NOT NULL
			)`,
			`CREATE INDEX IF NOT EXISTS idx_detalle_venta_venta ON detalle_venta (id_venta)`,
		},
	},
}

// tableNames in reverse dependency order, for DropSchema.
var tableNames = []string{
	"detalle_venta",
	"venta",
	"detalle_pedido",
	"pedido",
	"items_carrito",
	"carritos",
	"cliente",
	"producto",
	"proveedor",
	"categorias_producto",
	"schema_migrations",
}

// EnsureSchema applies every pending migration.
func EnsureSchema(ctx context.Context, db *runtime.DB) error {
	return NewMigrator(db).Up(ctx)
}

// DropSchema removes all tables, migration history included. Used by
// tests and the migrate command's reset flag.
func DropSchema(ctx context.Context, db *runtime.DB) error {
	return db.InTx(ctx, pgx.TxOptions{}, func(tx pgx.Tx) error {
		for _, name := range tableNames {
			if _, err := tx.Exec(ctx, "DROP TABLE IF EXISTS "+name+" CASCADE"); err != nil {
				return fmt.Errorf("failed to drop table %s: %w", name, err)
			}
		}
		return nil
	})
}
