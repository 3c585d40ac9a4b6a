// Package registry maps test types to the engines that execute them.
// Engine modules register themselves at startup; the dispatcher looks an
// engine up by a test case's type and forwards its configuration.
package registry
