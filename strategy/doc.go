// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package strategy converts chapters into embedding records.
//
// Four strategies exist: chapter (mandatory phase-1 representation, with an
// automatic mode that picks a representation from the chapter's token
// count), query (search-side embedding of free text), qa (synthesized
// question/answer pairs), and summary (completion-generated condensation of
// large chapters). Strategies resolve models exclusively through the
// resolved embedding context, attach provenance metadata to everything
// they produce, and fit every vector to the context's target dimension.
package strategy
