// Package events decouples task mutations from their side effects. Services
// emit Events through an EventEmitter; handlers such as the notification
// scheduler react to them without the service knowing they exist.
package events
