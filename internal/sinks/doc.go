// Package sinks publishes the artifacts of a finished run: a parquet
// snapshot, a Postgres table, an S3 copy of the report, and a completion
// event on Kafka and RabbitMQ.
//
// Sinks run after the cleaned workbook and report are on disk. They are
// optional and independent; PublishAll never lets one sink's failure affect
// another or the run's exit status.
package sinks
