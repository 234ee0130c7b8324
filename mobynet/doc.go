/*
Package mobynet discovers the IPv4 networks a Docker container is attached to,
together with the container's network namespace, so that these networks can be
swept from the container's point of view.
*/
package mobynet
