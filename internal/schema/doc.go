// Package schema describes csvlab's tables and moves rows between them.
//
// Tables are plain Go values (Table, Column, ForeignKey) rendered to
// PostgreSQL DDL. A Layout groups the tables one schema holds: the tutorial
// schema with file_list, user, subject and session; a lab schema with user and
// subject; an experiment schema whose session table references the lab.
//
// Existing schemas are opened by name with OpenModule, which reads
// information_schema the way a virtual module would, so rows can be copied
// into schemas csvlab did not declare itself.
//
// Insert1 and InsertFrom implement the skip-duplicates and
// ignore-extra-fields insert options on top of INSERT ... ON CONFLICT.
package schema
