package mocks

//go:generate mockgen -source=../reminder/notifier.go -destination=./notifier_mock.go -package=mocks
//go:generate mockgen -source=../reminder/service.go -destination=./reminder_service_mock.go -package=mocks
//go:generate mockgen -source=../events/bus.go -destination=./event_bus_mock.go -package=mocks

// This file contains go:generate directives for creating mocks
// The actual mock implementations are in separate files to avoid import cycles
