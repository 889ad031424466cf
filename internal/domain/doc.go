// Package domain defines the core business entities of the task
// marketplace: users who create tasks and users who execute them.
package domain
