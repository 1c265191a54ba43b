// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

/*
Package logging covers both sides of logging in the dispatcher.

1. Internal logs: the dispatcher's own logrus output, configured with SetLogLevel and SetOutput
2. Producer adapters: a logrus Hook and a newline splitting LineWriter that feed records into an Appender

When the Hook ships the internal log through the dispatcher it feeds, entries logged
during a flush must be skipped with WithSkipFields. Otherwise every failed send is
logged, buffered and sent again on the next cycle.
*/
package logging
